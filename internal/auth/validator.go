// Package auth validates connection tokens against an external identity
// service. Validation is best effort: the gateway accepts unauthenticated
// sessions when no service is configured, and a validation failure downgrades
// the session to anonymous rather than rejecting the call.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/careline/voice-gateway/internal/config"
	"github.com/careline/voice-gateway/internal/dialogue"
)

// Validator resolves a bearer token to a caller identity
type Validator interface {
	Validate(ctx context.Context, token string) (*dialogue.Identity, error)
}

// HTTPValidator checks tokens against an identity endpoint. The endpoint
// receives the token as a bearer header and replies with the caller's
// identity fields as JSON.
type HTTPValidator struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPValidator creates a validator from gateway configuration.
// Returns nil when no auth URL is configured.
func NewHTTPValidator(cfg *config.Config, logger zerolog.Logger) *HTTPValidator {
	if cfg.AuthURL == "" {
		return nil
	}
	return &HTTPValidator{
		url: cfg.AuthURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.AuthTimeout) * time.Second,
		},
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Validate resolves token to an identity. An empty token is not an error;
// it simply yields no identity.
func (v *HTTPValidator) Validate(ctx context.Context, token string) (*dialogue.Identity, error) {
	if token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		v.logger.Warn().Int("status", resp.StatusCode).Msg("Token rejected by auth service")
		return nil, nil
	default:
		return nil, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var identity dialogue.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decoding auth response: %w", err)
	}
	return &identity, nil
}
