package routing

import (
	"context"
	"fmt"

	"caseflow/internal/caseclient"
	"caseflow/internal/documents"
	"caseflow/internal/envelope"
	pkgerrors "caseflow/pkg/errors"
)

// SupplementaryEvidenceHandler attaches an envelope's documents to the case
// the envelope references. No matching case, or an attach that cannot
// succeed, degrades to an exception record so a caseworker can reconcile.
type SupplementaryEvidenceHandler struct {
	deps *handlerDeps
}

func (h *SupplementaryEvidenceHandler) Classification() envelope.Classification {
	return envelope.ClassificationSupplementaryEvidence
}

func (h *SupplementaryEvidenceHandler) Handle(ctx context.Context, env *envelope.Envelope, deliveryCount int) (ProcessingResult, error) {
	if err := checkClassification(h, env); err != nil {
		return ProcessingResult{}, err
	}

	container, ok := h.deps.cfg.Container(env.Container)
	if !ok {
		h.deps.logger.WarnwCtx(ctx, "No container configured, creating exception record",
			"container", env.Container,
		)
		return h.deps.fallbackToExceptionRecord(ctx, env)
	}

	target, err := h.findCase(ctx, env, container.CaseTypeID)
	if err != nil {
		if pkgerrors.IsRecoverable(err) && deliveryCount < h.deps.maxRetries() {
			return ProcessingResult{}, fmt.Errorf("searching for case: %w", err)
		}
		h.deps.logger.WarnwCtx(ctx, "Case search failed, creating exception record",
			"error", err,
		)
		return h.deps.fallbackToExceptionRecord(ctx, env)
	}
	if target == nil {
		h.deps.logger.InfowCtx(ctx, "No case matches supplementary evidence, creating exception record")
		return h.deps.fallbackToExceptionRecord(ctx, env)
	}

	outcome := h.attach(ctx, env, target)
	switch outcome.Status {
	case MutationSuccess:
		h.deps.recordPayment(ctx, env, false, outcome.CaseID)
		return ProcessingResult{CaseID: outcome.CaseID, Action: ActionAutoAttachedToCase}, nil

	case MutationUnrecoverable:
		h.deps.logger.WarnwCtx(ctx, "Attach failed unrecoverably, creating exception record",
			"error", outcome.Err,
			"case_id", target.ID,
		)
		return h.deps.fallbackToExceptionRecord(ctx, env)

	default:
		if deliveryCount < h.deps.maxRetries() {
			return ProcessingResult{}, fmt.Errorf("attaching documents: %w", outcome.Err)
		}
		return h.deps.fallbackToExceptionRecord(ctx, env)
	}
}

// findCase resolves the envelope's case reference, falling back to the legacy
// reference for cases migrated from the previous system.
func (h *SupplementaryEvidenceHandler) findCase(ctx context.Context, env *envelope.Envelope, caseTypeID string) (*caseclient.CaseRecord, error) {
	if env.CaseRef != "" {
		record, err := h.deps.cases.FindByField(ctx, env.Jurisdiction, caseTypeID, caseclient.FieldCaseRef, env.CaseRef)
		if err != nil || record != nil {
			return record, err
		}
	}
	if env.LegacyCaseRef != "" {
		return h.deps.cases.FindByField(ctx, env.Jurisdiction, caseTypeID, caseclient.FieldLegacyCaseRef, env.LegacyCaseRef)
	}
	return nil, nil
}

func (h *SupplementaryEvidenceHandler) attach(ctx context.Context, env *envelope.Envelope, target *caseclient.CaseRecord) MutationOutcome {
	fresh, err := documents.FilterDuplicates(target.Documents, env.Documents, env.ID, target.ID)
	if err != nil {
		return mutationUnrecoverable(err)
	}
	if len(fresh) == 0 {
		// Everything was already attached by an earlier delivery of this
		// envelope.
		h.deps.logger.InfowCtx(ctx, "All documents already attached, nothing to do",
			"case_id", target.ID,
		)
		return mutationSucceeded(target.ID)
	}

	token, err := h.deps.cases.StartMutation(ctx, env.Jurisdiction, target.CaseTypeID, target.ID, caseclient.EventAttachScannedDocs)
	if err != nil {
		return classifyMutationError(fmt.Errorf("starting document attach: %w", err))
	}

	if _, err := h.deps.cases.Submit(ctx, token, attachData(env, fresh), false); err != nil {
		return classifyMutationError(fmt.Errorf("submitting document attach: %w", err))
	}
	return mutationSucceeded(target.ID)
}

func attachData(env *envelope.Envelope, docs []envelope.Document) caseclient.CaseData {
	scanned := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		scanned = append(scanned, map[string]interface{}{
			"fileName":           doc.FileName,
			"controlNumber":      doc.ControlNumber,
			"type":               doc.Type,
			"subtype":            doc.Subtype,
			"scannedDate":        doc.ScannedAt,
			"deliveryDate":       doc.DeliveredAt,
			"uuid":               doc.UUID,
			"exceptionRecordRef": env.ID,
		})
	}
	return caseclient.CaseData{
		"evidenceHandled":  "No",
		"scannedDocuments": scanned,
	}
}
