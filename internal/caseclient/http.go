package caseclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"caseflow/internal/auth"
	"caseflow/internal/config"
	"caseflow/internal/constants"
	"caseflow/internal/logger"
	"caseflow/pkg/circuitbreaker"
	pkgerrors "caseflow/pkg/errors"
	"caseflow/pkg/retry"
)

// HTTPClient talks to the case-management REST API. Reads and mutation starts
// are retried on transient failures; Submit is single-shot because the event
// token is consumed server-side.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenProvider
	breaker *circuitbreaker.Wrapper
	policy  retry.Policy
	logger  logger.Logger
}

func NewHTTPClient(cfg config.HTTPClientConfig, tokens auth.TokenProvider, breaker *circuitbreaker.Wrapper, log logger.Logger) *HTTPClient {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		breaker: breaker,
		policy:  retry.DefaultPolicy(),
		logger:  log,
	}
}

func (c *HTTPClient) StartMutation(ctx context.Context, jurisdiction, caseTypeID, caseID, eventID string) (*MutationToken, error) {
	path := fmt.Sprintf("/jurisdictions/%s/case-types/%s/event-triggers/%s/token",
		url.PathEscape(jurisdiction), url.PathEscape(caseTypeID), url.PathEscape(eventID))
	if caseID != "" {
		path = fmt.Sprintf("/jurisdictions/%s/case-types/%s/cases/%s/event-triggers/%s/token",
			url.PathEscape(jurisdiction), url.PathEscape(caseTypeID), url.PathEscape(caseID), url.PathEscape(eventID))
	}

	var token MutationToken
	err := c.withRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, path, jurisdiction, nil, &token)
	})
	if err != nil {
		return nil, err
	}

	token.CaseID = caseID
	token.EventID = eventID
	token.Jurisdiction = jurisdiction
	token.CaseTypeID = caseTypeID
	return &token, nil
}

func (c *HTTPClient) Submit(ctx context.Context, token *MutationToken, data CaseData, ignoreWarnings bool) (*CaseRecord, error) {
	path := fmt.Sprintf("/jurisdictions/%s/case-types/%s/cases?ignore-warning=%t",
		url.PathEscape(token.Jurisdiction), url.PathEscape(token.CaseTypeID), ignoreWarnings)
	if token.CaseID != "" {
		path = fmt.Sprintf("/jurisdictions/%s/case-types/%s/cases/%s/events?ignore-warning=%t",
			url.PathEscape(token.Jurisdiction), url.PathEscape(token.CaseTypeID), url.PathEscape(token.CaseID), ignoreWarnings)
	}

	body := map[string]interface{}{
		"event_token": token.EventToken,
		"event_id":    token.EventID,
		"data":        data,
	}

	var record CaseRecord
	if err := c.doJSON(ctx, http.MethodPost, path, token.Jurisdiction, body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *HTTPClient) FindByField(ctx context.Context, jurisdiction, caseTypeID, fieldPath, value string) (*CaseRecord, error) {
	path := fmt.Sprintf("/jurisdictions/%s/case-types/%s/cases?%s=%s",
		url.PathEscape(jurisdiction), url.PathEscape(caseTypeID),
		url.QueryEscape(fieldPath), url.QueryEscape(value))

	var records []CaseRecord
	err := c.withRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, path, jurisdiction, nil, &records)
	})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (c *HTTPClient) Read(ctx context.Context, caseID, jurisdiction string) (*CaseRecord, error) {
	path := fmt.Sprintf("/cases/%s", url.PathEscape(caseID))

	var record CaseRecord
	err := c.withRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, path, jurisdiction, nil, &record)
	})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (c *HTTPClient) FindExceptionRecordIDs(ctx context.Context, envelopeID, service string) ([]string, error) {
	path := fmt.Sprintf("/exception-records?envelope_id=%s&service=%s",
		url.QueryEscape(envelopeID), url.QueryEscape(service))

	var result struct {
		IDs []string `json:"ids"`
	}
	err := c.withRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, path, "", nil, &result)
	})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return result.IDs, nil
}

// withRetry retries transient failures only; coded non-retryable errors stop
// the loop immediately.
func (c *HTTPClient) withRetry(ctx context.Context, fn func() error) error {
	return retry.Retry(ctx, c.policy, func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !pkgerrors.IsRecoverable(err) {
			return retry.NewFatalError(err)
		}
		return err
	})
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path, jurisdiction string, body, out interface{}) error {
	call := func() (interface{}, error) {
		var reqBody io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, pkgerrors.ErrInternal.WithCause(err)
			}
			reqBody = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, pkgerrors.ErrInternal.WithCause(err)
		}
		req.Header.Set("Content-Type", "application/json")

		if c.tokens != nil {
			creds, err := c.tokens.CredentialsFor(ctx, jurisdiction)
			if err != nil {
				return nil, pkgerrors.ErrUnauthorized.WithCause(err)
			}
			req.Header.Set("Authorization", "Bearer "+creds.UserToken)
			req.Header.Set("ServiceAuthorization", creds.ServiceToken)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, pkgerrors.ErrServiceUnavailable.WithCause(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, pkgerrors.ErrServiceUnavailable.WithCause(err)
		}

		if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
			return nil, statusError(resp.StatusCode, respBody)
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return nil, pkgerrors.ErrInternal.WithCause(err).
					WithDetail("message", "malformed case-management response")
			}
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

func statusError(status int, body []byte) error {
	detail := string(body)
	switch status {
	case http.StatusNotFound:
		return pkgerrors.ErrNotFound.WithDetail("message", detail)
	case http.StatusConflict:
		return pkgerrors.ErrConflict.WithDetail("message", detail)
	case http.StatusBadRequest:
		return pkgerrors.ErrValidation.WithDetail("message", detail)
	case http.StatusUnprocessableEntity:
		return pkgerrors.ErrUnprocessable.WithDetail("message", detail)
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.ErrUnauthorized.WithDetail("message", detail)
	default:
		return pkgerrors.ErrServiceUnavailable.
			WithDetail("message", detail).
			WithDetail("status", status)
	}
}
