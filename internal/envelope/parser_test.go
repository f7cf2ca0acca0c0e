package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "caseflow/pkg/errors"
)

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"id":             "env-1",
		"case_ref":       "1234567890",
		"jurisdiction":   "PROBATE",
		"container":      "probate",
		"classification": "new_application",
		"documents": []map[string]interface{}{
			{"file_name": "will.pdf", "control_number": "123456"},
			{"file_name": "form.pdf", "control_number": "654321"},
		},
		"payments": []map[string]interface{}{
			{"document_control_number": "123456"},
		},
		"ocr_data": []map[string]interface{}{
			{"name": "first_name", "value": "Jane"},
		},
	}
}

func marshal(t *testing.T, payload map[string]interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func TestParseValidEnvelope(t *testing.T) {
	env, err := Parse(marshal(t, validPayload()))
	require.NoError(t, err)

	assert.Equal(t, "env-1", env.ID)
	assert.Equal(t, ClassificationNewApplication, env.Classification)
	assert.Equal(t, []string{"123456", "654321"}, env.ControlNumbers())
	assert.True(t, env.HasPayments())
	require.Len(t, env.OCRData, 1)
	assert.Equal(t, "first_name", env.OCRData[0].Name)
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestParseRejectsMissingFields(t *testing.T) {
	for _, field := range []string{"id", "jurisdiction", "container"} {
		payload := validPayload()
		delete(payload, field)

		_, err := Parse(marshal(t, payload))
		require.Error(t, err, "missing %s must be rejected", field)
		assert.True(t, pkgerrors.IsValidation(err))
	}
}

func TestParseRejectsUnknownClassification(t *testing.T) {
	payload := validPayload()
	payload["classification"] = "mystery"

	_, err := Parse(marshal(t, payload))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestParseRejectsDuplicateControlNumbers(t *testing.T) {
	payload := validPayload()
	payload["documents"] = []map[string]interface{}{
		{"file_name": "a.pdf", "control_number": "123456"},
		{"file_name": "b.pdf", "control_number": "123456"},
	}

	_, err := Parse(marshal(t, payload))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestParseRejectsDocumentWithoutControlNumber(t *testing.T) {
	payload := validPayload()
	payload["documents"] = []map[string]interface{}{
		{"file_name": "a.pdf"},
	}

	_, err := Parse(marshal(t, payload))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}
