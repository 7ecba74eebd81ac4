package tts

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/careline/voice-gateway/internal/pool"
)

type fakeEngine struct {
	audio []byte
	err   error
	calls []string // languages requested, in order
}

func (f *fakeEngine) Synthesize(ctx context.Context, text string, voice *Voice) ([]byte, error) {
	f.calls = append(f.calls, voice.Language)
	return f.audio, f.err
}

func (f *fakeEngine) Name() string { return "fake" }

func newTestSynthesizer(engine Engine) *Synthesizer {
	return NewSynthesizer(engine, NewRegistry("en"), pool.New("tts", 1, 0), zerolog.Nop())
}

func TestSynthesizer_ReturnsAudio(t *testing.T) {
	engine := &fakeEngine{audio: []byte{1, 2, 3}}
	s := newTestSynthesizer(engine)

	audio, err := s.Synthesize(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(audio) != 3 {
		t.Errorf("Expected 3 audio bytes, got %d", len(audio))
	}
}

func TestSynthesizer_FailureYieldsNilAudio(t *testing.T) {
	engine := &fakeEngine{err: errors.New("piper crashed")}
	s := newTestSynthesizer(engine)

	audio, err := s.Synthesize(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("Expected degraded nil result, got error: %v", err)
	}
	if audio != nil {
		t.Errorf("Expected nil audio on failure, got %d bytes", len(audio))
	}
}

func TestSynthesizer_UnknownLanguageUsesDefault(t *testing.T) {
	engine := &fakeEngine{audio: []byte{1}}
	s := newTestSynthesizer(engine)

	if _, err := s.Synthesize(context.Background(), "hello", "xx"); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(engine.calls) != 1 || engine.calls[0] != "en" {
		t.Errorf("Expected default language en, got %v", engine.calls)
	}
}

func TestSynthesizer_EmptyLanguageUsesDefault(t *testing.T) {
	engine := &fakeEngine{audio: []byte{1}}
	s := newTestSynthesizer(engine)

	if _, err := s.Synthesize(context.Background(), "hello", ""); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(engine.calls) != 1 || engine.calls[0] != "en" {
		t.Errorf("Expected default language en, got %v", engine.calls)
	}
}

func TestSynthesizer_FallsBackToDefaultVoiceOnError(t *testing.T) {
	engine := &fakeEngine{err: errors.New("missing artifact")}
	s := newTestSynthesizer(engine)

	_, err := s.Synthesize(context.Background(), "hola", "es")
	if err != nil {
		t.Fatalf("Expected degraded result, got error: %v", err)
	}
	if len(engine.calls) != 2 || engine.calls[0] != "es" || engine.calls[1] != "en" {
		t.Errorf("Expected es then en fallback, got %v", engine.calls)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry("en")

	if v := r.Resolve("es"); v == nil || v.Language != "es" {
		t.Error("Expected es voice")
	}
	if v := r.Resolve("EN-us"); v == nil || v.Language != "en" {
		t.Error("Expected region-qualified code to resolve to en")
	}
	if v := r.Resolve("zz"); v == nil || v.Language != "en" {
		t.Error("Expected unknown code to resolve to default")
	}
	if v := r.Resolve(""); v == nil || v.Language != "en" {
		t.Error("Expected empty code to resolve to default")
	}
}

func TestRegistry_Add(t *testing.T) {
	r := NewRegistry("en")
	r.Add(&Voice{Language: "uk", ModelFile: "uk/uk_UA/ukrainian_tts/medium/uk_UA-ukrainian_tts-medium.onnx"})

	if v := r.Resolve("uk"); v == nil || v.Language != "uk" {
		t.Error("Expected added voice to resolve")
	}
}
