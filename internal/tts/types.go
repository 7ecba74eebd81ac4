package tts

import "context"

// Voice is one synthesis resource: a language mapped to the artifacts each
// engine needs. Loaded once at startup and read-only thereafter.
type Voice struct {
	Language string

	// ModelFile is the piper artifact path relative to the voice base URL,
	// e.g. "en/en_US/lessac/medium/en_US-lessac-medium.onnx"
	ModelFile string

	// RemoteVoiceID selects the voice on hosted synthesis APIs
	RemoteVoiceID string
}

// Engine converts reply text into raw little-endian 16-bit mono PCM.
// Implementations block; the Synthesizer runs them on the shared bounded pool.
type Engine interface {
	// Synthesize returns raw PCM audio for the text in the given voice
	Synthesize(ctx context.Context, text string, voice *Voice) ([]byte, error)

	// Name identifies the engine for logs and metrics
	Name() string
}
