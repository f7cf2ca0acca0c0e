// Package auth provides per-jurisdiction credentials for calls into the
// case-management system.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"caseflow/internal/config"
	"caseflow/internal/constants"
	pkgerrors "caseflow/pkg/errors"
)

type Credentials struct {
	ServiceToken string `json:"service_token"`
	UserToken    string `json:"user_token"`
	UserID       string `json:"user_id"`
}

type TokenProvider interface {
	CredentialsFor(ctx context.Context, jurisdiction string) (Credentials, error)
}

// HTTPProvider leases fresh credentials from the identity service on every
// call; wrap it in CachedProvider to amortize the cost.
type HTTPProvider struct {
	baseURL string
	http    *http.Client
}

func NewHTTPProvider(cfg config.AuthClientConfig) *HTTPProvider {
	return &HTTPProvider{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: constants.DefaultHTTPTimeout},
	}
}

func (p *HTTPProvider) CredentialsFor(ctx context.Context, jurisdiction string) (Credentials, error) {
	body, err := json.Marshal(map[string]string{"jurisdiction": jurisdiction})
	if err != nil {
		return Credentials{}, pkgerrors.ErrInternal.WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/lease", bytes.NewReader(body))
	if err != nil {
		return Credentials{}, pkgerrors.ErrInternal.WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return Credentials{}, pkgerrors.ErrServiceUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credentials{}, pkgerrors.ErrServiceUnavailable.WithCause(err)
	}

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return Credentials{}, pkgerrors.ErrUnauthorized.
			WithDetail("message", fmt.Sprintf("credential lease failed with status %d", resp.StatusCode))
	}

	var creds Credentials
	if err := json.Unmarshal(respBody, &creds); err != nil {
		return Credentials{}, pkgerrors.ErrInternal.WithCause(err)
	}
	return creds, nil
}
