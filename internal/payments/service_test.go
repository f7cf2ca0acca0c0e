package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/envelope"
	"caseflow/internal/logger"
	pkgerrors "caseflow/pkg/errors"
)

type fakeStore struct {
	payments       map[string]*Payment
	updates        map[string]*UpdatePayment
	savedStatuses  []Status
	saveErr        error
	savesRemaining int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payments:       map[string]*Payment{},
		updates:        map[string]*UpdatePayment{},
		savesRemaining: -1,
	}
}

func (f *fakeStore) SavePayment(_ context.Context, p *Payment) error {
	if f.saveErr != nil && f.savesRemaining == 0 {
		return f.saveErr
	}
	if f.savesRemaining > 0 {
		f.savesRemaining--
	}
	copied := *p
	f.payments[p.ID] = &copied
	f.savedStatuses = append(f.savedStatuses, p.Status)
	return nil
}

func (f *fakeStore) FindPaymentByID(_ context.Context, id string) (*Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound.WithDetail("payment_id", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) FindPaymentsByStatus(_ context.Context, status Status) ([]Payment, error) {
	var result []Payment
	for _, p := range f.payments {
		if p.Status == status {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (f *fakeStore) SaveUpdatePayment(_ context.Context, p *UpdatePayment) error {
	copied := *p
	f.updates[p.ID] = &copied
	f.savedStatuses = append(f.savedStatuses, p.Status)
	return nil
}

func (f *fakeStore) FindUpdatePaymentByID(_ context.Context, id string) (*UpdatePayment, error) {
	p, ok := f.updates[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound.WithDetail("payment_id", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) FindUpdatePaymentsByStatus(_ context.Context, status Status) ([]UpdatePayment, error) {
	var result []UpdatePayment
	for _, p := range f.updates {
		if p.Status == status {
			result = append(result, *p)
		}
	}
	return result, nil
}

type fakeProcessor struct {
	createErr   error
	updateErr   error
	createCalls int
	// pendingAtCall records the stored status of the payment at the moment
	// the processor was invoked.
	pendingAtCall []Status
	store         *fakeStore
}

func (f *fakeProcessor) CreatePayment(_ context.Context, p *Payment) error {
	f.createCalls++
	if f.store != nil {
		if stored, ok := f.store.payments[p.ID]; ok {
			f.pendingAtCall = append(f.pendingAtCall, stored.Status)
		}
	}
	return f.createErr
}

func (f *fakeProcessor) UpdatePayment(context.Context, *UpdatePayment) error {
	return f.updateErr
}

func paymentEnvelope() *envelope.Envelope {
	return &envelope.Envelope{
		ID:           "env-1",
		POBox:        "PO 123",
		Jurisdiction: "PROBATE",
		Container:    "probate",
		Payments: []envelope.PaymentReference{
			{DocumentControlNumber: "123456"},
			{DocumentControlNumber: "654321"},
		},
	}
}

func TestCreateNewPaymentLifecycle(t *testing.T) {
	store := newFakeStore()
	processor := &fakeProcessor{store: store}
	svc := NewService(store, processor, logger.NopLogger())

	err := svc.CreateNewPayment(context.Background(), paymentEnvelope(), false, "case-1")
	require.NoError(t, err)

	// The pending row must be on disk before the processor sees it.
	require.Equal(t, []Status{StatusPending}, processor.pendingAtCall)
	require.Equal(t, []Status{StatusPending, StatusComplete}, store.savedStatuses)

	require.Len(t, store.payments, 1)
	for _, p := range store.payments {
		assert.Equal(t, StatusComplete, p.Status)
		assert.Equal(t, "case-1", p.CaseRef)
		assert.Equal(t, []string{"123456", "654321"}, p.ControlNumbers)
		assert.False(t, p.IsExceptionRecord)
		assert.Empty(t, p.StatusMessage)
	}
}

func TestCreateNewPaymentProcessorFailureIsSwallowed(t *testing.T) {
	store := newFakeStore()
	processor := &fakeProcessor{createErr: pkgerrors.ErrServiceUnavailable, store: store}
	svc := NewService(store, processor, logger.NopLogger())

	err := svc.CreateNewPayment(context.Background(), paymentEnvelope(), true, "er-1")
	require.NoError(t, err, "processor failure must not fail the envelope")

	require.Len(t, store.payments, 1)
	for _, p := range store.payments {
		assert.Equal(t, StatusFailed, p.Status)
		assert.NotEmpty(t, p.StatusMessage)
		assert.True(t, p.IsExceptionRecord)
	}
}

func TestCreateNewPaymentPersistFailureIsReported(t *testing.T) {
	store := newFakeStore()
	store.saveErr = assert.AnError
	store.savesRemaining = 0
	processor := &fakeProcessor{}
	svc := NewService(store, processor, logger.NopLogger())

	err := svc.CreateNewPayment(context.Background(), paymentEnvelope(), false, "case-1")
	require.Error(t, err)
	assert.Equal(t, 0, processor.createCalls, "processor must not be called without a persisted row")
}

func TestReprocessNewPaymentSuccessClearsMessage(t *testing.T) {
	store := newFakeStore()
	store.payments["p-1"] = &Payment{
		ID:            "p-1",
		EnvelopeID:    "env-1",
		Status:        StatusFailed,
		StatusMessage: "processor down",
		CreatedAt:     time.Now(),
	}
	svc := NewService(store, &fakeProcessor{}, logger.NopLogger())

	payment, err := svc.ReprocessNewPayment(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, payment.Status)
	assert.Empty(t, payment.StatusMessage)
	assert.Equal(t, StatusComplete, store.payments["p-1"].Status)
}

func TestReprocessNewPaymentFailureIsReported(t *testing.T) {
	store := newFakeStore()
	store.payments["p-1"] = &Payment{ID: "p-1", Status: StatusFailed, StatusMessage: "old"}
	svc := NewService(store, &fakeProcessor{createErr: pkgerrors.ErrServiceUnavailable}, logger.NopLogger())

	payment, err := svc.ReprocessNewPayment(context.Background(), "p-1")
	require.Error(t, err)
	assert.Equal(t, StatusFailed, payment.Status)
	assert.NotEmpty(t, payment.StatusMessage)
}

func TestReprocessNewPaymentNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeProcessor{}, logger.NopLogger())

	_, err := svc.ReprocessNewPayment(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUpdatePaymentLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeProcessor{}, logger.NopLogger())

	payment, err := svc.UpdatePayment(context.Background(), "env-1", "PROBATE", "er-1", "case-9")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, payment.Status)
	assert.Equal(t, "er-1", payment.ExceptionRecordRef)
	assert.Equal(t, "case-9", payment.NewCaseRef)
	require.Equal(t, []Status{StatusPending, StatusComplete}, store.savedStatuses)
}

func TestUpdatePaymentProcessorFailureLeavesFailedRow(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeProcessor{updateErr: pkgerrors.ErrServiceUnavailable}, logger.NopLogger())

	payment, err := svc.UpdatePayment(context.Background(), "env-1", "PROBATE", "er-1", "case-9")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, payment.Status)

	failed, err := svc.FailedUpdatePayments(context.Background())
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}
