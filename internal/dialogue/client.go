package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/careline/voice-gateway/internal/config"
	"github.com/careline/voice-gateway/internal/observability"
	"github.com/careline/voice-gateway/internal/resilience"
)

// Client calls a dialogue engine over HTTP. Requests and replies are JSON;
// the engine's reply shape is {"spoken_response": ..., "metadata": {...}}.
// A circuit breaker guards the endpoint so a dead engine fails fast instead
// of tying up turn workers for the full request timeout.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     zerolog.Logger
}

// NewClient creates a dialogue client from gateway configuration
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		url: cfg.DialogueURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.DialogueTimeout) * time.Second,
		},
		breaker: resilience.NewCircuitBreaker(
			"dialogue",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		logger: logger.With().Str("component", "dialogue").Logger(),
	}
}

// Respond sends one user turn and returns the engine's reply. Missing
// metadata fields are normalized so callers never see an empty language.
func (c *Client) Respond(ctx context.Context, req *Request) (*Result, error) {
	var result *Result
	err := c.breaker.Call(func() error {
		r, err := c.respond(ctx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil && err != resilience.ErrCircuitOpen {
		observability.IncrementCircuitBreakerFailures("dialogue")
	}
	observability.UpdateCircuitBreakerState("dialogue", int(c.breaker.GetState()))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) respond(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding dialogue request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building dialogue request: %w", err)
	}
	correlationID := observability.NewCorrelationID()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Correlation-ID", correlationID)
	logger := observability.WithCorrelationID(c.logger, correlationID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dialogue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the log, the status is the signal
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", strings.TrimSpace(string(snippet))).
			Msg("Dialogue engine returned error status")
		return nil, fmt.Errorf("dialogue engine returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding dialogue response: %w", err)
	}
	if strings.TrimSpace(result.Spoken) == "" {
		return nil, fmt.Errorf("dialogue engine returned empty reply")
	}
	result.Metadata.Language = strings.TrimSpace(result.Metadata.Language)

	logger.Debug().
		Dur("latency", time.Since(start)).
		Str("language", result.Metadata.Language).
		Bool("emergency", result.Metadata.Emergency).
		Bool("end_call", result.Metadata.EndCall).
		Msg("Dialogue turn completed")

	return &result, nil
}
