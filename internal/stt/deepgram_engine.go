package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	listenapi "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/careline/voice-gateway/internal/audio"
	"github.com/careline/voice-gateway/internal/config"
)

// DeepgramEngine transcribes utterances with Deepgram's pre-recorded REST
// API. Each call is a single blocking request; concurrency is bounded by the
// transcription pool, not here.
type DeepgramEngine struct {
	api        *listenapi.Client
	model      string
	language   string
	sampleRate int
}

// NewDeepgramEngine creates a Deepgram pre-recorded transcription engine
func NewDeepgramEngine(cfg *config.Config) *DeepgramEngine {
	c := listenClient.NewREST(cfg.DeepgramAPIKey, &interfaces.ClientOptions{})
	return &DeepgramEngine{
		api:        listenapi.New(c),
		model:      cfg.DeepgramModel,
		language:   cfg.DefaultLanguage,
		sampleRate: cfg.SampleRate,
	}
}

// Name identifies the engine
func (e *DeepgramEngine) Name() string { return "deepgram" }

// Transcribe sends the utterance as WAV and returns the best transcript
func (e *DeepgramEngine) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	wav, err := audio.EncodeWAV(pcm, e.sampleRate)
	if err != nil {
		return "", fmt.Errorf("encoding utterance: %w", err)
	}

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       e.model,
		Language:    e.language,
		Punctuate:   true,
		SmartFormat: true,
	}

	res, err := e.api.FromStream(ctx, bytes.NewReader(wav), options)
	if err != nil {
		return "", fmt.Errorf("deepgram request: %w", err)
	}

	if res == nil || len(res.Results.Channels) == 0 {
		return "", nil
	}
	alts := res.Results.Channels[0].Alternatives
	if len(alts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(alts[0].Transcript), nil
}
