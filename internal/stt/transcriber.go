package stt

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/careline/voice-gateway/internal/pool"
)

// Transcriber runs utterance transcription on a bounded worker pool shared
// across all sessions. Engine failures degrade to an empty transcript:
// upstream treats empty text as "no actionable speech" and produces no turn.
type Transcriber struct {
	engine Engine
	pool   *pool.Pool
	logger zerolog.Logger
}

// NewTranscriber creates a transcriber backed by the given engine and pool
func NewTranscriber(engine Engine, p *pool.Pool, logger zerolog.Logger) *Transcriber {
	return &Transcriber{
		engine: engine,
		pool:   p,
		logger: logger,
	}
}

// Transcribe converts an utterance to text. It returns "" both for genuine
// silence and for engine failures; the error is non-nil only when the caller
// context ends before a pool slot frees.
func (t *Transcriber) Transcribe(ctx context.Context, utterance []byte) (string, error) {
	var text string
	err := t.pool.Do(ctx, func(taskCtx context.Context) error {
		out, err := t.engine.Transcribe(taskCtx, utterance)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Error().
			Err(err).
			Str("engine", t.engine.Name()).
			Int("bytes", len(utterance)).
			Msg("Transcription failed, returning empty text")
		return "", nil
	}
	return strings.TrimSpace(text), nil
}
