package stt

import "context"

// Engine converts one complete utterance of raw little-endian 16-bit mono
// PCM into text. Implementations block; the Transcriber runs them on the
// shared bounded pool.
type Engine interface {
	// Transcribe returns the recognized text, possibly empty
	Transcribe(ctx context.Context, pcm []byte) (string, error)

	// Name identifies the engine for logs and metrics
	Name() string
}
