package tts

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/careline/voice-gateway/internal/pool"
)

// Synthesizer runs speech synthesis on a bounded worker pool shared across
// all sessions. A failed synthesis degrades to nil audio: the reply text is
// still delivered, only the audio message is suppressed.
type Synthesizer struct {
	engine Engine
	voices *Registry
	pool   *pool.Pool
	logger zerolog.Logger
}

// NewSynthesizer creates a synthesizer backed by the given engine and pool
func NewSynthesizer(engine Engine, voices *Registry, p *pool.Pool, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		engine: engine,
		voices: voices,
		pool:   p,
		logger: logger,
	}
}

// Synthesize converts reply text in the given language into raw PCM. Unknown
// languages resolve to the default voice; if the resolved voice fails, the
// default voice is tried once before giving up. The error is non-nil only
// when the caller context ends before a pool slot frees.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	voice := s.voices.Resolve(language)
	if voice == nil {
		s.logger.Error().Str("language", language).Msg("No voice available, skipping audio")
		return nil, nil
	}

	var audioData []byte
	err := s.pool.Do(ctx, func(taskCtx context.Context) error {
		out, err := s.engine.Synthesize(taskCtx, text, voice)
		if err != nil && voice != s.voices.Default() {
			s.logger.Warn().
				Err(err).
				Str("language", voice.Language).
				Msg("Voice failed, falling back to default language")
			out, err = s.engine.Synthesize(taskCtx, text, s.voices.Default())
		}
		if err != nil {
			return err
		}
		audioData = out
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error().
			Err(err).
			Str("engine", s.engine.Name()).
			Str("language", language).
			Msg("Synthesis failed, delivering text without audio")
		return nil, nil
	}
	return audioData, nil
}

// Voices exposes the registry for readiness checks
func (s *Synthesizer) Voices() *Registry {
	return s.voices
}
