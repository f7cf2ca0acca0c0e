// Package transform is the boundary to the transformation/update
// microservices that turn raw scanned data into case-shaped data.
package transform

import (
	"context"

	"caseflow/internal/caseclient"
	"caseflow/internal/envelope"
)

type Client interface {
	// TransformEnvelope maps an envelope into case-shaped data for case
	// creation. An unprocessable envelope surfaces as an error for which
	// pkg/errors.IsUnprocessable reports true.
	TransformEnvelope(ctx context.Context, env *envelope.Envelope) (caseclient.CaseData, error)
	// BuildCaseUpdate merges an envelope's OCR data into an existing case,
	// returning the updated case-shaped data. Unprocessable input reports
	// true from pkg/errors.IsUnprocessable; the caller treats that as an
	// abandoned update.
	BuildCaseUpdate(ctx context.Context, env *envelope.Envelope, existing *caseclient.CaseRecord) (caseclient.CaseData, error)
}
