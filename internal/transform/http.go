package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"caseflow/internal/caseclient"
	"caseflow/internal/config"
	"caseflow/internal/constants"
	"caseflow/internal/envelope"
	"caseflow/pkg/circuitbreaker"
	pkgerrors "caseflow/pkg/errors"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Wrapper
}

func NewHTTPClient(cfg config.HTTPClientConfig, breaker *circuitbreaker.Wrapper) *HTTPClient {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

func (c *HTTPClient) TransformEnvelope(ctx context.Context, env *envelope.Envelope) (caseclient.CaseData, error) {
	return c.post(ctx, "/transform-envelope", map[string]interface{}{
		"envelope": env,
	})
}

func (c *HTTPClient) BuildCaseUpdate(ctx context.Context, env *envelope.Envelope, existing *caseclient.CaseRecord) (caseclient.CaseData, error) {
	return c.post(ctx, "/update-case", map[string]interface{}{
		"envelope":      env,
		"existing_case": existing,
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}) (caseclient.CaseData, error) {
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

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, pkgerrors.ErrServiceUnavailable.WithCause(err)
		}

		switch {
		case resp.StatusCode == http.StatusUnprocessableEntity:
			return nil, pkgerrors.ErrUnprocessable.WithDetail("message", string(respBody))
		case resp.StatusCode == http.StatusBadRequest:
			return nil, pkgerrors.ErrValidation.WithDetail("message", string(respBody))
		case resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax:
			return nil, pkgerrors.ErrServiceUnavailable.
				WithDetail("message", string(respBody)).
				WithDetail("status", resp.StatusCode)
		}

		var result struct {
			CaseData caseclient.CaseData `json:"case_data"`
		}
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, pkgerrors.ErrInternal.WithCause(err)
		}
		return result.CaseData, nil
	}

	var result interface{}
	var err error
	if c.breaker != nil {
		result, err = c.breaker.ExecuteWithContext(ctx, call)
		c.breaker.RecordRequest(err == nil)
	} else {
		result, err = call()
	}
	if err != nil {
		return nil, err
	}
	return result.(caseclient.CaseData), nil
}
