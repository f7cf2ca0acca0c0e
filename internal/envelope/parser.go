package envelope

import (
	"encoding/json"
	"fmt"

	pkgerrors "caseflow/pkg/errors"
)

// Parse deserializes a queue message body into an Envelope and enforces the
// structural invariants the pipeline depends on. Any error returned here is
// an unrecoverable input error: the caller dead-letters the message.
func Parse(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, pkgerrors.ErrValidation.WithCause(err).
			WithDetail("message", "envelope payload is not valid JSON")
	}

	if err := validate(&env); err != nil {
		return nil, pkgerrors.ErrValidation.WithCause(err).
			WithDetail("message", err.Error())
	}

	return &env, nil
}

func validate(env *Envelope) error {
	if env.ID == "" {
		return fmt.Errorf("envelope id is missing")
	}
	if env.Jurisdiction == "" {
		return fmt.Errorf("envelope %s has no jurisdiction", env.ID)
	}
	if env.Container == "" {
		return fmt.Errorf("envelope %s has no container", env.ID)
	}
	if !env.Classification.Valid() {
		return fmt.Errorf("envelope %s has unknown classification %q", env.ID, env.Classification)
	}

	// Control numbers must be unique within one envelope; they are the join
	// key for cross-envelope duplicate detection.
	seen := make(map[string]bool, len(env.Documents))
	for _, d := range env.Documents {
		if d.ControlNumber == "" {
			return fmt.Errorf("envelope %s contains a document without a control number", env.ID)
		}
		if seen[d.ControlNumber] {
			return fmt.Errorf("envelope %s contains duplicate control number %s", env.ID, d.ControlNumber)
		}
		seen[d.ControlNumber] = true
	}

	return nil
}
