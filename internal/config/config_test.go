package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.SampleRate != 16000 {
		t.Errorf("Expected SampleRate 16000, got %d", cfg.SampleRate)
	}
	if cfg.FrameMs != 30 {
		t.Errorf("Expected FrameMs 30, got %d", cfg.FrameMs)
	}
	if cfg.SilenceFrames != 30 {
		t.Errorf("Expected SilenceFrames 30, got %d", cfg.SilenceFrames)
	}
	if cfg.PrerollFrames != 20 {
		t.Errorf("Expected PrerollFrames 20, got %d", cfg.PrerollFrames)
	}
	if cfg.MaxEngineRetries != 3 {
		t.Errorf("Expected MaxEngineRetries 3, got %d", cfg.MaxEngineRetries)
	}
	if cfg.TurnQueuePolicy != "drop_oldest" {
		t.Errorf("Expected TurnQueuePolicy drop_oldest, got %s", cfg.TurnQueuePolicy)
	}
}

func TestFrameBytes(t *testing.T) {
	cfg := &Config{SampleRate: 16000, FrameMs: 30}
	// 16000 Hz * 0.030 s = 480 samples = 960 bytes
	if got := cfg.FrameBytes(); got != 960 {
		t.Errorf("Expected FrameBytes 960, got %d", got)
	}
}

func TestMinUtteranceBytes(t *testing.T) {
	cfg := &Config{SampleRate: 16000, MinUtteranceMs: 1000}
	if got := cfg.MinUtteranceBytes(); got != 32000 {
		t.Errorf("Expected MinUtteranceBytes 32000, got %d", got)
	}
}

func TestDeepgramRequiresKey(t *testing.T) {
	os.Setenv("STT_ENGINE", "deepgram")
	defer os.Unsetenv("STT_ENGINE")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error when STT_ENGINE=deepgram without DEEPGRAM_API_KEY")
	}

	os.Setenv("DEEPGRAM_API_KEY", "test-key")
	defer os.Unsetenv("DEEPGRAM_API_KEY")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed with key set: %v", err)
	}
	if cfg.STTEngine != "deepgram" {
		t.Errorf("Expected STTEngine deepgram, got %s", cfg.STTEngine)
	}
}

func TestInvalidFrameMs(t *testing.T) {
	os.Setenv("FRAME_MS", "25")
	defer os.Unsetenv("FRAME_MS")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error for FRAME_MS=25")
	}
}

func TestInvalidQueuePolicy(t *testing.T) {
	os.Setenv("TURN_QUEUE_POLICY", "random")
	defer os.Unsetenv("TURN_QUEUE_POLICY")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error for unknown TURN_QUEUE_POLICY")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("VG_TEST_KEY", "from-env")
	defer os.Unsetenv("VG_TEST_KEY")

	if got := GetEnv("VG_TEST_KEY", "fallback"); got != "from-env" {
		t.Errorf("Expected from-env, got %q", got)
	}
	if got := GetEnv("VG_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}

func TestTerminations(t *testing.T) {
	cfg := &Config{TerminationPhrases: "goodbye, hang up ,"}
	phrases := cfg.Terminations()
	if len(phrases) != 2 {
		t.Fatalf("Expected 2 phrases, got %d", len(phrases))
	}
	if phrases[0] != "goodbye" || phrases[1] != "hang up" {
		t.Errorf("Unexpected phrases: %v", phrases)
	}
}
