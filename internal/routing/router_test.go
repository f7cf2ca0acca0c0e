package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/envelope"
	"caseflow/internal/logger"
)

func TestRouterCoversEveryClassification(t *testing.T) {
	handlers := NewHandlers(&fakeCases{}, &fakeTransformer{}, &fakeCreator{}, &fakePayments{}, testProcessingConfig(), logger.NopLogger())
	router := NewRouter(handlers...)

	for _, c := range []envelope.Classification{
		envelope.ClassificationNewApplication,
		envelope.ClassificationException,
		envelope.ClassificationSupplementaryEvidence,
		envelope.ClassificationSupplementaryEvidenceOCR,
	} {
		h, err := router.Route(c)
		require.NoError(t, err, "classification %q", c)
		assert.Equal(t, c, h.Classification())
	}
}

func TestRouterRejectsUnknownClassification(t *testing.T) {
	router := NewRouter(NewHandlers(&fakeCases{}, &fakeTransformer{}, &fakeCreator{}, &fakePayments{}, testProcessingConfig(), logger.NopLogger())...)

	_, err := router.Route("mystery")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
