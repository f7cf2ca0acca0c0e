package exceptionrecord

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/caseclient"
	"caseflow/internal/config"
	"caseflow/internal/envelope"
	"caseflow/internal/logger"
)

type fakeCases struct {
	existingIDs  []string
	searchErr    error
	startErr     error
	submitErr    error
	submitted    []caseclient.CaseData
	nextRecordID string
}

func (f *fakeCases) StartMutation(_ context.Context, jurisdiction, caseTypeID, caseID, eventID string) (*caseclient.MutationToken, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &caseclient.MutationToken{
		EventToken:   "token-1",
		CaseID:       caseID,
		EventID:      eventID,
		Jurisdiction: jurisdiction,
		CaseTypeID:   caseTypeID,
	}, nil
}

func (f *fakeCases) Submit(_ context.Context, _ *caseclient.MutationToken, data caseclient.CaseData, _ bool) (*caseclient.CaseRecord, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, data)
	id := f.nextRecordID
	f.existingIDs = append(f.existingIDs, id)
	return &caseclient.CaseRecord{ID: id}, nil
}

func (f *fakeCases) FindByField(context.Context, string, string, string, string) (*caseclient.CaseRecord, error) {
	return nil, nil
}

func (f *fakeCases) Read(context.Context, string, string) (*caseclient.CaseRecord, error) {
	return nil, nil
}

func (f *fakeCases) FindExceptionRecordIDs(context.Context, string, string) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.existingIDs, nil
}

func testConfig(dupJurisdictions ...string) *config.ProcessingConfig {
	return &config.ProcessingConfig{
		DuplicatePreventionJurisdictions: dupJurisdictions,
		Containers: []config.ContainerConfig{
			{
				Name:                      "probate",
				Jurisdiction:              "PROBATE",
				CaseTypeID:                "GrantOfRepresentation",
				ExceptionRecordCaseTypeID: "PROBATE_ExceptionRecord",
			},
		},
	}
}

func testEnvelope() *envelope.Envelope {
	return &envelope.Envelope{
		ID:             "env-1",
		Jurisdiction:   "PROBATE",
		Container:      "probate",
		Classification: envelope.ClassificationException,
		Documents: []envelope.Document{
			{FileName: "will.pdf", ControlNumber: "123456"},
		},
	}
}

func TestTryCreateFromCreatesRecord(t *testing.T) {
	cases := &fakeCases{nextRecordID: "er-100"}
	creator := NewCreator(cases, testConfig("PROBATE"), logger.NopLogger())

	id, err := creator.TryCreateFrom(context.Background(), testEnvelope())

	require.NoError(t, err)
	assert.Equal(t, "er-100", id)
	require.Len(t, cases.submitted, 1)
	assert.Equal(t, "env-1", cases.submitted[0]["envelopeId"])
	assert.Equal(t, "exception", cases.submitted[0]["journeyClassification"])
}

func TestTryCreateFromIsIdempotentAcrossDeliveries(t *testing.T) {
	cases := &fakeCases{nextRecordID: "er-100"}
	creator := NewCreator(cases, testConfig("PROBATE"), logger.NopLogger())

	first, err := creator.TryCreateFrom(context.Background(), testEnvelope())
	require.NoError(t, err)

	second, err := creator.TryCreateFrom(context.Background(), testEnvelope())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, cases.submitted, 1, "redelivery must not create a second record")
}

func TestTryCreateFromSkipsSearchWhenPreventionDisabled(t *testing.T) {
	cases := &fakeCases{existingIDs: []string{"er-old"}, nextRecordID: "er-new"}
	creator := NewCreator(cases, testConfig(), logger.NopLogger())

	id, err := creator.TryCreateFrom(context.Background(), testEnvelope())

	require.NoError(t, err)
	assert.Equal(t, "er-new", id)
	assert.Len(t, cases.submitted, 1)
}

func TestTryCreateFromUnknownContainer(t *testing.T) {
	creator := NewCreator(&fakeCases{}, testConfig(), logger.NopLogger())

	env := testEnvelope()
	env.Container = "unknown"

	_, err := creator.TryCreateFrom(context.Background(), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestTryCreateFromSearchFailureSurfaces(t *testing.T) {
	cases := &fakeCases{searchErr: assert.AnError}
	creator := NewCreator(cases, testConfig("PROBATE"), logger.NopLogger())

	_, err := creator.TryCreateFrom(context.Background(), testEnvelope())
	require.Error(t, err)
	assert.Empty(t, cases.submitted)
}
