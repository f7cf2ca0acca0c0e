package routing

import (
	"context"

	"caseflow/internal/envelope"
)

// ExceptionHandler routes envelopes classified as exceptions straight to the
// exception-record creator.
type ExceptionHandler struct {
	deps *handlerDeps
}

func (h *ExceptionHandler) Classification() envelope.Classification {
	return envelope.ClassificationException
}

func (h *ExceptionHandler) Handle(ctx context.Context, env *envelope.Envelope, _ int) (ProcessingResult, error) {
	if err := checkClassification(h, env); err != nil {
		return ProcessingResult{}, err
	}
	return h.deps.fallbackToExceptionRecord(ctx, env)
}
