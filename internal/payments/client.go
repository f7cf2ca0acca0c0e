package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"caseflow/internal/config"
	"caseflow/internal/constants"
	"caseflow/pkg/circuitbreaker"
	pkgerrors "caseflow/pkg/errors"
	"caseflow/pkg/retry"
)

// ProcessorClient is the boundary to the external payment processor.
type ProcessorClient interface {
	CreatePayment(ctx context.Context, p *Payment) error
	UpdatePayment(ctx context.Context, p *UpdatePayment) error
}

type HTTPProcessorClient struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Wrapper
	policy  retry.Policy
}

func NewHTTPProcessorClient(cfg config.HTTPClientConfig, breaker *circuitbreaker.Wrapper) *HTTPProcessorClient {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	return &HTTPProcessorClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		policy:  retry.DefaultPolicy(),
	}
}

func (c *HTTPProcessorClient) CreatePayment(ctx context.Context, p *Payment) error {
	payload := map[string]interface{}{
		"id":                  p.ID,
		"envelope_id":         p.EnvelopeID,
		"case_ref":            p.CaseRef,
		"is_exception_record": p.IsExceptionRecord,
		"po_box":              p.POBox,
		"jurisdiction":        p.Jurisdiction,
		"service":             p.Service,
		"control_numbers":     p.ControlNumbers,
	}
	return c.post(ctx, "/payments", payload)
}

func (c *HTTPProcessorClient) UpdatePayment(ctx context.Context, p *UpdatePayment) error {
	payload := map[string]interface{}{
		"envelope_id":          p.EnvelopeID,
		"jurisdiction":         p.Jurisdiction,
		"exception_record_ref": p.ExceptionRecordRef,
		"new_case_ref":         p.NewCaseRef,
	}
	return c.post(ctx, "/payments/update", payload)
}

func (c *HTTPProcessorClient) post(ctx context.Context, path string, payload interface{}) error {
	return retry.Retry(ctx, c.policy, func() error {
		err := c.doPost(ctx, path, payload)
		if err == nil {
			return nil
		}
		if !pkgerrors.IsRecoverable(err) {
			return retry.NewFatalError(err)
		}
		return err
	})
}

func (c *HTTPProcessorClient) doPost(ctx context.Context, path string, payload interface{}) error {
	call := func() (interface{}, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.ErrInternal.WithCause(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, pkgerrors.ErrInternal.WithCause(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, pkgerrors.ErrServiceUnavailable.WithCause(err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode == http.StatusBadRequest:
			return nil, pkgerrors.ErrValidation.WithDetail("message", string(respBody))
		case resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax:
			return nil, pkgerrors.ErrServiceUnavailable.
				WithDetail("message", string(respBody)).
				WithDetail("status", resp.StatusCode)
		}
		return nil, nil
	}

	var err error
	if c.breaker != nil {
		_, err = c.breaker.ExecuteWithContext(ctx, call)
		c.breaker.RecordRequest(err == nil)
	} else {
		_, err = call()
	}
	return err
}
