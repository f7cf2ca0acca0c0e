// Package exceptionrecord creates exception records for envelopes that cannot
// be attached to a service case automatically.
package exceptionrecord

import (
	"context"
	"fmt"

	"caseflow/internal/caseclient"
	"caseflow/internal/config"
	"caseflow/internal/envelope"
	"caseflow/internal/logger"
	"caseflow/pkg/metrics"
)

// Creator builds exception-record cases from envelopes. Creation is idempotent
// per envelope for jurisdictions with duplicate prevention enabled: a record
// that already exists for the envelope is returned instead of creating a
// second one, so redeliveries never fan out into duplicate records.
type Creator struct {
	cases  caseclient.Client
	cfg    *config.ProcessingConfig
	logger logger.Logger
}

func NewCreator(cases caseclient.Client, cfg *config.ProcessingConfig, log logger.Logger) *Creator {
	return &Creator{cases: cases, cfg: cfg, logger: log}
}

// TryCreateFrom creates an exception record for the envelope and returns its
// case ID, or the ID of the record a previous delivery already created.
func (c *Creator) TryCreateFrom(ctx context.Context, env *envelope.Envelope) (string, error) {
	container, ok := c.cfg.Container(env.Container)
	if !ok {
		metrics.ExceptionRecordsTotal.WithLabelValues(env.Jurisdiction, "error").Inc()
		return "", fmt.Errorf("no container configured for %q", env.Container)
	}

	if c.cfg.DuplicatePreventionEnabled(env.Jurisdiction) {
		ids, err := c.cases.FindExceptionRecordIDs(ctx, env.ID, env.Container)
		if err != nil {
			metrics.ExceptionRecordsTotal.WithLabelValues(env.Jurisdiction, "error").Inc()
			return "", fmt.Errorf("searching existing exception records: %w", err)
		}
		if len(ids) > 0 {
			if len(ids) > 1 {
				c.logger.WarnwCtx(ctx, "Multiple exception records already exist for envelope",
					"count", len(ids),
				)
			}
			metrics.ExceptionRecordsTotal.WithLabelValues(env.Jurisdiction, "reused").Inc()
			return ids[0], nil
		}
	}

	token, err := c.cases.StartMutation(ctx, env.Jurisdiction, container.ExceptionRecordCaseTypeID, "", caseclient.EventCreateException)
	if err != nil {
		metrics.ExceptionRecordsTotal.WithLabelValues(env.Jurisdiction, "error").Inc()
		return "", fmt.Errorf("starting exception-record creation: %w", err)
	}

	record, err := c.cases.Submit(ctx, token, buildCaseData(env), true)
	if err != nil {
		metrics.ExceptionRecordsTotal.WithLabelValues(env.Jurisdiction, "error").Inc()
		return "", fmt.Errorf("submitting exception record: %w", err)
	}

	c.logger.InfowCtx(ctx, "Created exception record",
		"exception_record_id", record.ID,
	)
	metrics.ExceptionRecordsTotal.WithLabelValues(env.Jurisdiction, "created").Inc()
	return record.ID, nil
}

func buildCaseData(env *envelope.Envelope) caseclient.CaseData {
	docs := make([]map[string]interface{}, 0, len(env.Documents))
	for _, doc := range env.Documents {
		docs = append(docs, map[string]interface{}{
			"fileName":      doc.FileName,
			"controlNumber": doc.ControlNumber,
			"type":          doc.Type,
			"subtype":       doc.Subtype,
			"scannedDate":   doc.ScannedAt,
			"deliveryDate":  doc.DeliveredAt,
			"uuid":          doc.UUID,
		})
	}

	data := caseclient.CaseData{
		"envelopeId":            env.ID,
		"poBox":                 env.POBox,
		"poBoxJurisdiction":     env.Jurisdiction,
		"journeyClassification": string(env.Classification),
		"deliveryDate":          env.DeliveryDate,
		"openingDate":           env.OpeningDate,
		"zipFileName":           env.ZipFileName,
		"formType":              env.FormType,
		"scannedDocuments":      docs,
		"containsPayments":      env.HasPayments(),
	}
	if env.CaseRef != "" {
		data["searchCaseReference"] = env.CaseRef
	}
	return data
}
