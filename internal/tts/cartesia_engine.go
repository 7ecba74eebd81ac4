package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/careline/voice-gateway/internal/config"
)

// CartesiaEngine synthesizes speech with Cartesia's hosted TTS API, selecting
// the remote voice from the resolved Voice.
type CartesiaEngine struct {
	apiKey     string
	apiURL     string
	modelID    string
	sampleRate int
	httpClient *http.Client
}

type cartesiaRequest struct {
	Text         string `json:"text"`
	VoiceID      string `json:"voice_id"`
	ModelID      string `json:"model_id,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`
	Language     string `json:"language,omitempty"`
}

// NewCartesiaEngine creates a Cartesia TTS engine
func NewCartesiaEngine(cfg *config.Config) *CartesiaEngine {
	return &CartesiaEngine{
		apiKey:     cfg.CartesiaAPIKey,
		apiURL:     "https://api.cartesia.ai/v1/tts",
		modelID:    cfg.CartesiaModelID,
		sampleRate: cfg.SampleRate,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TTSTimeout) * time.Second,
		},
	}
}

// Name identifies the engine
func (e *CartesiaEngine) Name() string { return "cartesia" }

// Synthesize requests PCM audio at the gateway's sample rate
func (e *CartesiaEngine) Synthesize(ctx context.Context, text string, voice *Voice) ([]byte, error) {
	if voice.RemoteVoiceID == "" {
		return nil, fmt.Errorf("voice %s has no remote voice id", voice.Language)
	}

	payload, err := json.Marshal(cartesiaRequest{
		Text:         text,
		VoiceID:      voice.RemoteVoiceID,
		ModelID:      e.modelID,
		OutputFormat: "pcm",
		SampleRate:   e.sampleRate,
		Language:     voice.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cartesia returned %d: %s", resp.StatusCode, data)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio response: %w", err)
	}
	if len(audioData) == 0 {
		return nil, fmt.Errorf("cartesia returned empty audio")
	}
	return audioData, nil
}
