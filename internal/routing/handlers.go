package routing

import (
	"context"

	"caseflow/internal/caseclient"
	"caseflow/internal/config"
	"caseflow/internal/envelope"
	"caseflow/internal/logger"
	"caseflow/internal/transform"
)

// ExceptionRecordCreator is the fallback every handler degrades to. It is
// idempotent per envelope, which is what makes redelivery safe.
type ExceptionRecordCreator interface {
	TryCreateFrom(ctx context.Context, env *envelope.Envelope) (string, error)
}

// PaymentRecorder records payment rows for envelopes carrying payment
// references. Implementations swallow payment-processor failures; a returned
// error means the row itself could not be persisted.
type PaymentRecorder interface {
	CreateNewPayment(ctx context.Context, env *envelope.Envelope, isExceptionRecord bool, caseID string) error
}

// handlerDeps is the collaborator set shared by all four handlers.
type handlerDeps struct {
	cases       caseclient.Client
	transformer transform.Client
	creator     ExceptionRecordCreator
	payments    PaymentRecorder
	cfg         config.ProcessingConfig
	logger      logger.Logger
}

// fallbackToExceptionRecord is the common degradation path: create (or reuse)
// an exception record for the envelope and register payments against it.
func (d *handlerDeps) fallbackToExceptionRecord(ctx context.Context, env *envelope.Envelope) (ProcessingResult, error) {
	caseID, err := d.creator.TryCreateFrom(ctx, env)
	if err != nil {
		return ProcessingResult{}, err
	}
	d.recordPayment(ctx, env, true, caseID)
	return ProcessingResult{CaseID: caseID, Action: ActionExceptionRecord}, nil
}

// recordPayment registers the envelope's payments against the resolved case.
// Payment failures never fail the envelope.
func (d *handlerDeps) recordPayment(ctx context.Context, env *envelope.Envelope, isExceptionRecord bool, caseID string) {
	if !env.HasPayments() {
		return
	}
	if err := d.payments.CreateNewPayment(ctx, env, isExceptionRecord, caseID); err != nil {
		d.logger.WarnwCtx(ctx, "Failed to record payment for envelope",
			"error", err,
			"case_id", caseID,
		)
	}
}

func (d *handlerDeps) maxRetries() int {
	return d.cfg.MaxRetries
}

// NewHandlers wires the four classification handlers onto one shared
// collaborator set, in registration order for NewRouter.
func NewHandlers(
	cases caseclient.Client,
	transformer transform.Client,
	creator ExceptionRecordCreator,
	payments PaymentRecorder,
	cfg config.ProcessingConfig,
	log logger.Logger,
) []Handler {
	deps := &handlerDeps{
		cases:       cases,
		transformer: transformer,
		creator:     creator,
		payments:    payments,
		cfg:         cfg,
		logger:      log,
	}
	return []Handler{
		&NewApplicationHandler{deps: deps},
		&ExceptionHandler{deps: deps},
		&SupplementaryEvidenceHandler{deps: deps},
		&SupplementaryEvidenceOCRHandler{deps: deps},
	}
}
