// Package processor decides the disposition of every consumed envelope
// message: complete it, dead-letter it, or leave it for redelivery.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caseflow/internal/audit"
	"caseflow/internal/broker"
	"caseflow/internal/config"
	"caseflow/internal/constants"
	"caseflow/internal/envelope"
	"caseflow/internal/logger"
	"caseflow/internal/notify"
	"caseflow/internal/routing"
	pkgerrors "caseflow/pkg/errors"
	"caseflow/pkg/logging"
	"caseflow/pkg/metrics"
)

type Processor struct {
	router   *routing.Router
	notifier notify.Notifier
	audit    audit.Repository
	cfg      config.ProcessingConfig
	logger   logger.Logger
}

// New builds the envelope processor. audit may be nil; the trail is
// best-effort either way.
func New(router *routing.Router, notifier notify.Notifier, auditRepo audit.Repository, cfg config.ProcessingConfig, log logger.Logger) *Processor {
	return &Processor{
		router:   router,
		notifier: notifier,
		audit:    auditRepo,
		cfg:      cfg,
		logger:   log,
	}
}

// Process implements broker.ProcessorFunc.
func (p *Processor) Process(ctx context.Context, msg broker.RawMessage) broker.Disposition {
	if msg.Subject == constants.SubjectHeartbeat {
		p.logger.DebugwCtx(ctx, "Heartbeat message, completing without processing")
		return broker.Complete()
	}

	env, err := envelope.Parse(msg.Body)
	if err != nil {
		p.logger.ErrorwCtx(ctx, "Rejecting malformed envelope message",
			"error", err,
			"delivery_count", msg.DeliveryCount,
		)
		// The description names the concrete decode/validation error type, not
		// the coded wrapper around it.
		cause := errors.Unwrap(err)
		if cause == nil {
			cause = err
		}
		return broker.DeadLetter(constants.DeadLetterReasonProcessingError, fmt.Sprintf("%T: %v", cause, err))
	}

	ctx = logging.WithEnvelopeID(ctx, env.ID)
	ctx = logging.WithJurisdiction(ctx, env.Jurisdiction)
	if env.CaseRef != "" {
		ctx = logging.WithCaseRef(ctx, env.CaseRef)
	}

	started := time.Now()
	result, err := p.handle(ctx, env, msg.DeliveryCount)
	if err != nil {
		return p.failureDisposition(ctx, env, msg.DeliveryCount, err)
	}

	p.logger.InfowCtx(ctx, "Envelope resolved",
		"action", string(result.Action),
		"case_id", result.CaseID,
	)
	metrics.EnvelopesProcessedTotal.WithLabelValues(string(env.Classification), string(result.Action)).Inc()
	metrics.ObserveEnvelopeDuration(time.Since(started), string(env.Classification))

	if err := p.notifier.Notify(ctx, env.ID, result.CaseID, result.Action); err != nil {
		// Leaving the message unfinalized is safe: the handlers and the
		// exception-record creator tolerate redelivery.
		p.logger.WarnwCtx(ctx, "Failed to notify downstream, leaving message for redelivery",
			"error", err,
		)
		metrics.NotificationFailuresTotal.Inc()
		return broker.LeaveForRedelivery()
	}

	p.recordAudit(ctx, env, &audit.Event{
		Outcome: audit.OutcomeCompleted,
		Action:  string(result.Action),
		CaseID:  result.CaseID,
	})
	return broker.Complete()
}

// handle routes and runs the classification handler with panic containment.
func (p *Processor) handle(ctx context.Context, env *envelope.Envelope, deliveryCount int) (result routing.ProcessingResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = pkgerrors.RecoverPanic(r)
			p.logger.ErrorwCtx(ctx, "Handler panicked", "error", err)
		}
	}()

	handler, err := p.router.Route(env.Classification)
	if err != nil {
		return routing.ProcessingResult{}, err
	}
	return handler.Handle(ctx, env, deliveryCount)
}

func (p *Processor) failureDisposition(ctx context.Context, env *envelope.Envelope, deliveryCount int, err error) broker.Disposition {
	if deliveryCount < p.cfg.MaxDeliveryCount {
		p.logger.WarnwCtx(ctx, "Envelope processing failed, leaving message for redelivery",
			"error", err,
			"delivery_count", deliveryCount,
		)
		return broker.LeaveForRedelivery()
	}

	description := fmt.Sprintf("Limit of %d reached", p.cfg.MaxDeliveryCount)
	p.logger.ErrorwCtx(ctx, "Envelope exhausted its delivery budget, dead-lettering",
		"error", err,
		"delivery_count", deliveryCount,
	)
	p.recordAudit(ctx, env, &audit.Event{
		Outcome: audit.OutcomeDeadLettered,
		Reason:  fmt.Sprintf("%s: %v", description, err),
	})
	return broker.DeadLetter(constants.DeadLetterReasonTooManyDeliveries, description)
}

func (p *Processor) recordAudit(ctx context.Context, env *envelope.Envelope, event *audit.Event) {
	if p.audit == nil {
		return
	}
	event.EnvelopeID = env.ID
	event.Container = env.Container
	event.Jurisdiction = env.Jurisdiction
	event.Classification = string(env.Classification)
	if err := p.audit.RecordEvent(ctx, event); err != nil {
		p.logger.WarnwCtx(ctx, "Failed to record envelope audit event", "error", err)
	}
}
