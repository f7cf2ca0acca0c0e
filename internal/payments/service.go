package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"caseflow/internal/envelope"
	"caseflow/internal/logger"
	"caseflow/pkg/metrics"
)

// Store is the persistence surface the service needs.
type Store interface {
	SavePayment(ctx context.Context, p *Payment) error
	FindPaymentByID(ctx context.Context, id string) (*Payment, error)
	FindPaymentsByStatus(ctx context.Context, status Status) ([]Payment, error)
	SaveUpdatePayment(ctx context.Context, p *UpdatePayment) error
	FindUpdatePaymentByID(ctx context.Context, id string) (*UpdatePayment, error)
	FindUpdatePaymentsByStatus(ctx context.Context, status Status) ([]UpdatePayment, error)
}

// Service owns the payment lifecycle: a PENDING row is persisted before the
// processor is called, and the row reaches exactly one terminal status per
// attempt. Processor failures during envelope processing are recorded and
// swallowed; reprocess failures are reported to the caller.
type Service struct {
	store     Store
	processor ProcessorClient
	logger    logger.Logger
	now       func() time.Time
}

func NewService(store Store, processor ProcessorClient, log logger.Logger) *Service {
	return &Service{
		store:     store,
		processor: processor,
		logger:    log,
		now:       time.Now,
	}
}

// CreateNewPayment registers the envelope's payments against the resolved
// case. The returned error only signals that the row could not be persisted;
// a processor failure leaves a FAILED row for manual reprocessing.
func (s *Service) CreateNewPayment(ctx context.Context, env *envelope.Envelope, isExceptionRecord bool, caseID string) error {
	controlNumbers := make([]string, 0, len(env.Payments))
	for _, ref := range env.Payments {
		controlNumbers = append(controlNumbers, ref.DocumentControlNumber)
	}

	now := s.now()
	payment := &Payment{
		ID:                uuid.NewString(),
		EnvelopeID:        env.ID,
		CaseRef:           caseID,
		IsExceptionRecord: isExceptionRecord,
		POBox:             env.POBox,
		Jurisdiction:      env.Jurisdiction,
		Service:           env.Container,
		ControlNumbers:    controlNumbers,
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.SavePayment(ctx, payment); err != nil {
		return fmt.Errorf("persisting pending payment: %w", err)
	}

	if err := s.processor.CreatePayment(ctx, payment); err != nil {
		s.logger.WarnwCtx(ctx, "Payment processor rejected payment, row left FAILED",
			"error", err,
			"payment_id", payment.ID,
		)
		s.finalizePayment(ctx, payment, StatusFailed, err.Error())
		return nil
	}

	s.finalizePayment(ctx, payment, StatusComplete, "")
	return nil
}

// UpdatePayment re-points payments from an exception record to the service
// case it was resolved to. Same pending/terminal lifecycle as creation.
func (s *Service) UpdatePayment(ctx context.Context, envelopeID, jurisdiction, exceptionRecordRef, newCaseRef string) (*UpdatePayment, error) {
	now := s.now()
	payment := &UpdatePayment{
		ID:                 uuid.NewString(),
		EnvelopeID:         envelopeID,
		Jurisdiction:       jurisdiction,
		ExceptionRecordRef: exceptionRecordRef,
		NewCaseRef:         newCaseRef,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.SaveUpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("persisting pending update payment: %w", err)
	}

	if err := s.processor.UpdatePayment(ctx, payment); err != nil {
		s.logger.WarnwCtx(ctx, "Payment processor rejected payment update, row left FAILED",
			"error", err,
			"payment_id", payment.ID,
		)
		s.finalizeUpdatePayment(ctx, payment, StatusFailed, err.Error())
		return payment, nil
	}

	s.finalizeUpdatePayment(ctx, payment, StatusComplete, "")
	return payment, nil
}

// ReprocessNewPayment retries the processor call for a stored payment. Unlike
// creation, a processor failure here is reported to the caller.
func (s *Service) ReprocessNewPayment(ctx context.Context, id string) (*Payment, error) {
	payment, err := s.store.FindPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.processor.CreatePayment(ctx, payment); err != nil {
		s.finalizePayment(ctx, payment, StatusFailed, err.Error())
		metrics.PaymentReprocessTotal.WithLabelValues("new", "failed").Inc()
		return payment, fmt.Errorf("reprocessing payment %s: %w", id, err)
	}

	s.finalizePayment(ctx, payment, StatusComplete, "")
	metrics.PaymentReprocessTotal.WithLabelValues("new", "complete").Inc()
	return payment, nil
}

func (s *Service) ReprocessUpdatePayment(ctx context.Context, id string) (*UpdatePayment, error) {
	payment, err := s.store.FindUpdatePaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.processor.UpdatePayment(ctx, payment); err != nil {
		s.finalizeUpdatePayment(ctx, payment, StatusFailed, err.Error())
		metrics.PaymentReprocessTotal.WithLabelValues("update", "failed").Inc()
		return payment, fmt.Errorf("reprocessing update payment %s: %w", id, err)
	}

	s.finalizeUpdatePayment(ctx, payment, StatusComplete, "")
	metrics.PaymentReprocessTotal.WithLabelValues("update", "complete").Inc()
	return payment, nil
}

func (s *Service) FailedPayments(ctx context.Context) ([]Payment, error) {
	return s.store.FindPaymentsByStatus(ctx, StatusFailed)
}

func (s *Service) FailedUpdatePayments(ctx context.Context) ([]UpdatePayment, error) {
	return s.store.FindUpdatePaymentsByStatus(ctx, StatusFailed)
}

func (s *Service) finalizePayment(ctx context.Context, p *Payment, status Status, message string) {
	p.Status = status
	p.StatusMessage = message
	p.UpdatedAt = s.now()
	metrics.PaymentsTotal.WithLabelValues("new", string(status)).Inc()
	if err := s.store.SavePayment(ctx, p); err != nil {
		// The pending row survives; the operator sees a stuck PENDING row
		// instead of losing the payment.
		s.logger.ErrorwCtx(ctx, "Failed to persist terminal payment status",
			"error", err,
			"payment_id", p.ID,
			"status", status,
		)
	}
}

func (s *Service) finalizeUpdatePayment(ctx context.Context, p *UpdatePayment, status Status, message string) {
	p.Status = status
	p.StatusMessage = message
	p.UpdatedAt = s.now()
	metrics.PaymentsTotal.WithLabelValues("update", string(status)).Inc()
	if err := s.store.SaveUpdatePayment(ctx, p); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to persist terminal update-payment status",
			"error", err,
			"payment_id", p.ID,
			"status", status,
		)
	}
}
