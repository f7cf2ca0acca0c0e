package routing

import (
	"context"
	"fmt"

	"caseflow/internal/caseclient"
	"caseflow/internal/envelope"
	pkgerrors "caseflow/pkg/errors"
)

// NewApplicationHandler auto-creates a service case from the envelope. When
// creation cannot succeed it degrades to an exception record; when it might
// succeed on a later delivery it asks for a redelivery until the retry budget
// is spent.
type NewApplicationHandler struct {
	deps *handlerDeps
}

func (h *NewApplicationHandler) Classification() envelope.Classification {
	return envelope.ClassificationNewApplication
}

func (h *NewApplicationHandler) Handle(ctx context.Context, env *envelope.Envelope, deliveryCount int) (ProcessingResult, error) {
	if err := checkClassification(h, env); err != nil {
		return ProcessingResult{}, err
	}

	outcome := h.attemptCreate(ctx, env)
	switch outcome.Status {
	case MutationSuccess:
		h.deps.recordPayment(ctx, env, false, outcome.CaseID)
		return ProcessingResult{CaseID: outcome.CaseID, Action: ActionAutoCreatedCase}, nil

	case MutationUnrecoverable:
		h.deps.logger.WarnwCtx(ctx, "Case creation failed unrecoverably, creating exception record",
			"error", outcome.Err,
		)
		return h.deps.fallbackToExceptionRecord(ctx, env)

	default:
		if deliveryCount < h.deps.maxRetries() {
			return ProcessingResult{}, fmt.Errorf("case creation failed, will retry: %w", outcome.Err)
		}
		h.deps.logger.WarnwCtx(ctx, "Case creation retry budget spent, creating exception record",
			"error", outcome.Err,
			"delivery_count", deliveryCount,
		)
		return h.deps.fallbackToExceptionRecord(ctx, env)
	}
}

func (h *NewApplicationHandler) attemptCreate(ctx context.Context, env *envelope.Envelope) MutationOutcome {
	container, ok := h.deps.cfg.Container(env.Container)
	if !ok {
		return mutationUnrecoverable(fmt.Errorf("no container configured for %q", env.Container))
	}

	data, err := h.deps.transformer.TransformEnvelope(ctx, env)
	if err != nil {
		return classifyMutationError(fmt.Errorf("transforming envelope: %w", err))
	}

	token, err := h.deps.cases.StartMutation(ctx, env.Jurisdiction, container.CaseTypeID, "", caseclient.EventCreateCase)
	if err != nil {
		return classifyMutationError(fmt.Errorf("starting case creation: %w", err))
	}

	record, err := h.deps.cases.Submit(ctx, token, data, true)
	if err != nil {
		return classifyMutationError(fmt.Errorf("submitting case creation: %w", err))
	}

	return mutationSucceeded(record.ID)
}

// classifyMutationError splits a mutation failure on the coded-error
// recoverability: validation, unprocessable, conflict and auth failures will
// not clear on a redelivery of the same payload.
func classifyMutationError(err error) MutationOutcome {
	if !pkgerrors.IsRecoverable(err) {
		return mutationUnrecoverable(err)
	}
	return mutationPotentiallyRecoverable(err)
}
