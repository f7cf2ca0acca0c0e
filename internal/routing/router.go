package routing

import (
	"context"
	"fmt"

	"caseflow/internal/envelope"
)

// Handler processes one envelope of its classification. deliveryCount is the
// transport's delivery counter for the carrying message; handlers use it to
// decide between asking for a redelivery and degrading to an exception record.
type Handler interface {
	Classification() envelope.Classification
	Handle(ctx context.Context, env *envelope.Envelope, deliveryCount int) (ProcessingResult, error)
}

// Router dispatches envelopes to the handler registered for their
// classification.
type Router struct {
	handlers map[envelope.Classification]Handler
}

func NewRouter(handlers ...Handler) *Router {
	byClassification := make(map[envelope.Classification]Handler, len(handlers))
	for _, h := range handlers {
		byClassification[h.Classification()] = h
	}
	return &Router{handlers: byClassification}
}

func (r *Router) Route(c envelope.Classification) (Handler, error) {
	h, ok := r.handlers[c]
	if !ok {
		return nil, fmt.Errorf("no handler registered for classification %q", c)
	}
	return h, nil
}

// checkClassification guards against an envelope reaching the wrong handler.
// That is a programming error in the router, not a data problem.
func checkClassification(h Handler, env *envelope.Envelope) error {
	if env.Classification != h.Classification() {
		return fmt.Errorf("invalid argument: handler for %q received envelope %s classified %q",
			h.Classification(), env.ID, env.Classification)
	}
	return nil
}
