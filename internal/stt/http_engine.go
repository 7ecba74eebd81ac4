package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/careline/voice-gateway/internal/audio"
	"github.com/careline/voice-gateway/internal/config"
)

// HTTPEngine posts WAV-encoded utterances to a local inference server
// (a whisper-compatible transcription endpoint) and reads back
// {"text": "..."}.
type HTTPEngine struct {
	endpoint   string
	sampleRate int
	httpClient *http.Client
}

// NewHTTPEngine creates an HTTP transcription engine
func NewHTTPEngine(cfg *config.Config) *HTTPEngine {
	return &HTTPEngine{
		endpoint:   cfg.STTURL,
		sampleRate: cfg.SampleRate,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.STTTimeout) * time.Second,
		},
	}
}

// Name identifies the engine
func (e *HTTPEngine) Name() string { return "http" }

// Transcribe uploads the utterance as a multipart WAV file
func (e *HTTPEngine) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	wav, err := audio.EncodeWAV(pcm, e.sampleRate)
	if err != nil {
		return "", fmt.Errorf("encoding utterance: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "utterance.wav")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcription server returned %d: %s", resp.StatusCode, data)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription response: %w", err)
	}
	return result.Text, nil
}
