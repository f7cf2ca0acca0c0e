package routing

import (
	"context"

	"caseflow/internal/caseclient"
	"caseflow/internal/envelope"
)

type fakeCases struct {
	startErr    error
	submitErr   error
	findResult  *caseclient.CaseRecord
	findErr     error
	nextCaseID  string
	submitCalls int
	submitted   []caseclient.CaseData
}

func (f *fakeCases) StartMutation(_ context.Context, jurisdiction, caseTypeID, caseID, eventID string) (*caseclient.MutationToken, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &caseclient.MutationToken{
		EventToken:   "token",
		CaseID:       caseID,
		EventID:      eventID,
		Jurisdiction: jurisdiction,
		CaseTypeID:   caseTypeID,
	}, nil
}

func (f *fakeCases) Submit(_ context.Context, token *caseclient.MutationToken, data caseclient.CaseData, _ bool) (*caseclient.CaseRecord, error) {
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, data)
	id := token.CaseID
	if id == "" {
		id = f.nextCaseID
	}
	return &caseclient.CaseRecord{ID: id}, nil
}

func (f *fakeCases) FindByField(context.Context, string, string, string, string) (*caseclient.CaseRecord, error) {
	return f.findResult, f.findErr
}

func (f *fakeCases) Read(context.Context, string, string) (*caseclient.CaseRecord, error) {
	return f.findResult, f.findErr
}

func (f *fakeCases) FindExceptionRecordIDs(context.Context, string, string) ([]string, error) {
	return nil, nil
}

type fakeTransformer struct {
	data      caseclient.CaseData
	err       error
	updateErr error
}

func (f *fakeTransformer) TransformEnvelope(context.Context, *envelope.Envelope) (caseclient.CaseData, error) {
	return f.data, f.err
}

func (f *fakeTransformer) BuildCaseUpdate(context.Context, *envelope.Envelope, *caseclient.CaseRecord) (caseclient.CaseData, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.data, f.err
}

type fakeCreator struct {
	id    string
	err   error
	calls int
}

func (f *fakeCreator) TryCreateFrom(context.Context, *envelope.Envelope) (string, error) {
	f.calls++
	return f.id, f.err
}

type recordedPayment struct {
	envelopeID        string
	isExceptionRecord bool
	caseID            string
}

type fakePayments struct {
	recorded []recordedPayment
	err      error
}

func (f *fakePayments) CreateNewPayment(_ context.Context, env *envelope.Envelope, isExceptionRecord bool, caseID string) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, recordedPayment{
		envelopeID:        env.ID,
		isExceptionRecord: isExceptionRecord,
		caseID:            caseID,
	})
	return nil
}
