package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/caseclient"
	"caseflow/internal/envelope"
)

func TestFilterDuplicatesPassesThroughNewDocuments(t *testing.T) {
	existing := []caseclient.CaseDocument{
		{FileName: "old.pdf", ControlNumber: "111111", ExceptionRecordRef: "ER1"},
	}
	incoming := []envelope.Document{
		{FileName: "new.pdf", ControlNumber: "123456"},
		{FileName: "other.pdf", ControlNumber: "654321"},
	}

	fresh, err := FilterDuplicates(existing, incoming, "ER1", "case-42")

	require.NoError(t, err)
	assert.Equal(t, incoming, fresh)
}

func TestFilterDuplicatesDropsSameSourceRedeliveries(t *testing.T) {
	existing := []caseclient.CaseDocument{
		{FileName: "a.pdf", ControlNumber: "123456", ExceptionRecordRef: "ER1"},
	}
	incoming := []envelope.Document{
		{FileName: "a.pdf", ControlNumber: "123456"},
		{FileName: "b.pdf", ControlNumber: "654321"},
	}

	fresh, err := FilterDuplicates(existing, incoming, "ER1", "case-42")

	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "654321", fresh[0].ControlNumber)
}

func TestFilterDuplicatesRejectsCrossSourceClashes(t *testing.T) {
	existing := []caseclient.CaseDocument{
		{FileName: "a.pdf", ControlNumber: "123456", ExceptionRecordRef: "ER2"},
		{FileName: "b.pdf", ControlNumber: "654321", ExceptionRecordRef: ""},
	}
	incoming := []envelope.Document{
		{FileName: "a.pdf", ControlNumber: "123456"},
		{FileName: "b.pdf", ControlNumber: "654321"},
	}

	fresh, err := FilterDuplicates(existing, incoming, "ER1", "case-42")

	require.Error(t, err)
	assert.Nil(t, fresh)

	var dupErr *DuplicateDocsError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "case-42", dupErr.CaseRef)
	assert.Equal(t, []string{"123456", "654321"}, dupErr.ControlNumbers)
	assert.Contains(t, err.Error(), "case-42")
	assert.Contains(t, err.Error(), "123456,654321")
}

func TestFilterDuplicatesMixedOutcomeStillFails(t *testing.T) {
	existing := []caseclient.CaseDocument{
		{ControlNumber: "123456", ExceptionRecordRef: "ER1"},
		{ControlNumber: "654321", ExceptionRecordRef: "ER9"},
	}
	incoming := []envelope.Document{
		{ControlNumber: "123456"},
		{ControlNumber: "654321"},
		{ControlNumber: "999999"},
	}

	_, err := FilterDuplicates(existing, incoming, "ER1", "case-7")

	var dupErr *DuplicateDocsError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, []string{"654321"}, dupErr.ControlNumbers)
}

func TestFilterDuplicatesEmptyExisting(t *testing.T) {
	incoming := []envelope.Document{{ControlNumber: "123456"}}

	fresh, err := FilterDuplicates(nil, incoming, "ER1", "case-1")

	require.NoError(t, err)
	assert.Equal(t, incoming, fresh)
}
