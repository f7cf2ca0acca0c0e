package routing

import (
	"context"
	"fmt"

	"caseflow/internal/caseclient"
	"caseflow/internal/envelope"
	pkgerrors "caseflow/pkg/errors"
)

// SupplementaryEvidenceOCRHandler applies an envelope's OCR data as an
// automatic update to the referenced case, when the container has automatic
// updates enabled. Containers with the feature disabled, and updates that
// cannot apply, degrade to an exception record.
type SupplementaryEvidenceOCRHandler struct {
	deps *handlerDeps
}

func (h *SupplementaryEvidenceOCRHandler) Classification() envelope.Classification {
	return envelope.ClassificationSupplementaryEvidenceOCR
}

func (h *SupplementaryEvidenceOCRHandler) Handle(ctx context.Context, env *envelope.Envelope, deliveryCount int) (ProcessingResult, error) {
	if err := checkClassification(h, env); err != nil {
		return ProcessingResult{}, err
	}

	container, ok := h.deps.cfg.Container(env.Container)
	if !ok || !container.AutoCaseUpdateEnabled {
		h.deps.logger.InfowCtx(ctx, "Automatic case update not enabled for container, creating exception record",
			"container", env.Container,
		)
		return h.deps.fallbackToExceptionRecord(ctx, env)
	}

	outcome := h.attemptUpdate(ctx, env, container.CaseTypeID)
	switch outcome.Status {
	case UpdateOK:
		h.deps.recordPayment(ctx, env, false, outcome.CaseID)
		return ProcessingResult{CaseID: outcome.CaseID, Action: ActionAutoUpdatedCase}, nil

	case UpdateAbandoned:
		h.deps.logger.WarnwCtx(ctx, "Automatic case update abandoned, creating exception record",
			"error", outcome.Err,
		)
		return h.deps.fallbackToExceptionRecord(ctx, env)

	default:
		if deliveryCount < h.deps.maxRetries() {
			return ProcessingResult{}, fmt.Errorf("updating case: %w", outcome.Err)
		}
		h.deps.logger.WarnwCtx(ctx, "Case update retry budget spent, creating exception record",
			"error", outcome.Err,
			"delivery_count", deliveryCount,
		)
		return h.deps.fallbackToExceptionRecord(ctx, env)
	}
}

func (h *SupplementaryEvidenceOCRHandler) attemptUpdate(ctx context.Context, env *envelope.Envelope, caseTypeID string) UpdateOutcome {
	target, err := h.deps.cases.FindByField(ctx, env.Jurisdiction, caseTypeID, caseclient.FieldCaseRef, env.CaseRef)
	if err != nil {
		return classifyUpdateError(fmt.Errorf("searching for case: %w", err))
	}
	if target == nil {
		return updateAbandoned(fmt.Errorf("no case matches reference %q", env.CaseRef))
	}

	data, err := h.deps.transformer.BuildCaseUpdate(ctx, env, target)
	if err != nil {
		if pkgerrors.IsUnprocessable(err) {
			return updateAbandoned(err)
		}
		return classifyUpdateError(fmt.Errorf("building case update: %w", err))
	}

	token, err := h.deps.cases.StartMutation(ctx, env.Jurisdiction, target.CaseTypeID, target.ID, caseclient.EventAutoUpdateCase)
	if err != nil {
		return classifyUpdateError(fmt.Errorf("starting case update: %w", err))
	}

	if _, err := h.deps.cases.Submit(ctx, token, data, false); err != nil {
		return classifyUpdateError(fmt.Errorf("submitting case update: %w", err))
	}
	return updateOK(target.ID)
}

// classifyUpdateError: validation-shaped failures will never apply, so the
// update is abandoned; everything else is worth another delivery.
func classifyUpdateError(err error) UpdateOutcome {
	if pkgerrors.IsValidation(err) || pkgerrors.IsUnprocessable(err) {
		return updateAbandoned(err)
	}
	return updateError(err)
}
