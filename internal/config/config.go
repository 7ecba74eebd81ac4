package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Audio format. The client streams raw little-endian 16-bit mono PCM;
	// the segmenter operates on fixed frames of that stream.
	SampleRate    int `envconfig:"SAMPLE_RATE" default:"16000"`
	FrameMs       int `envconfig:"FRAME_MS" default:"30"`
	PrerollFrames int `envconfig:"PREROLL_FRAMES" default:"20"`

	// Voice activity detection
	VADEnergyThreshold float64 `envconfig:"VAD_ENERGY_THRESHOLD" default:"500.0"` // RMS energy threshold for speech
	SilenceFrames      int     `envconfig:"SILENCE_FRAMES" default:"30"`          // Contiguous silence frames ending an utterance
	MinUtteranceMs     int     `envconfig:"MIN_UTTERANCE_MS" default:"1000"`      // Shorter utterances are discarded

	// Transcription
	STTEngine      string `envconfig:"STT_ENGINE" default:"http"` // "http" or "deepgram"
	STTURL         string `envconfig:"STT_URL" default:"http://localhost:9000/transcribe"`
	STTWorkers     int    `envconfig:"STT_WORKERS" default:"3"`
	STTTimeout     int    `envconfig:"STT_TIMEOUT" default:"30"` // seconds
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`

	// Synthesis
	TTSEngine       string `envconfig:"TTS_ENGINE" default:"piper"` // "piper" or "cartesia"
	TTSWorkers      int    `envconfig:"TTS_WORKERS" default:"3"`
	TTSTimeout      int    `envconfig:"TTS_TIMEOUT" default:"30"` // seconds
	PiperBinary     string `envconfig:"PIPER_BINARY" default:"piper"`
	VoicesDir       string `envconfig:"VOICES_DIR" default:"models"`
	VoiceBaseURL    string `envconfig:"VOICE_BASE_URL" default:"https://huggingface.co/rhasspy/piper-voices/resolve/main"`
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"en"`
	CartesiaAPIKey  string `envconfig:"CARTESIA_API_KEY" default:""`
	CartesiaModelID string `envconfig:"CARTESIA_MODEL_ID" default:"sonic"`

	// Dialogue engine collaborator
	DialogueURL      string `envconfig:"DIALOGUE_URL" default:"http://localhost:9100/respond"`
	DialogueTimeout  int    `envconfig:"DIALOGUE_TIMEOUT" default:"30"` // seconds
	HistoryWindow    int    `envconfig:"HISTORY_WINDOW" default:"20"`   // Trailing turns sent per request
	MaxEngineRetries int    `envconfig:"MAX_ENGINE_RETRIES" default:"3"`

	// Termination phrases, comma separated, matched case-insensitively
	TerminationPhrases string `envconfig:"TERMINATION_PHRASES" default:"goodbye"`

	// Auth collaborator. Empty URL disables validation; sessions run
	// unauthenticated.
	AuthURL     string `envconfig:"AUTH_URL" default:""`
	AuthTimeout int    `envconfig:"AUTH_TIMEOUT" default:"5"` // seconds

	// Call record persistence. Empty DSN selects the in-memory store.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	// Per-session turn queue
	TurnQueueSize   int    `envconfig:"TURN_QUEUE_SIZE" default:"4"`
	TurnQueuePolicy string `envconfig:"TURN_QUEUE_POLICY" default:"drop_oldest"` // "drop_oldest" or "reject"

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"` // milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables
// It first attempts to load from an env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load the env file (ignore error if it doesn't exist)
	_ = godotenv.Load(GetEnv("ENV_FILE", ".env"))

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that envconfig tags cannot express
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	switch c.FrameMs {
	case 10, 20, 30:
	default:
		return fmt.Errorf("FRAME_MS must be 10, 20 or 30, got %d", c.FrameMs)
	}
	switch c.STTEngine {
	case "http":
	case "deepgram":
		if c.DeepgramAPIKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required when STT_ENGINE=deepgram")
		}
	default:
		return fmt.Errorf("unknown STT_ENGINE %q", c.STTEngine)
	}
	switch c.TTSEngine {
	case "piper":
	case "cartesia":
		if c.CartesiaAPIKey == "" {
			return fmt.Errorf("CARTESIA_API_KEY is required when TTS_ENGINE=cartesia")
		}
	default:
		return fmt.Errorf("unknown TTS_ENGINE %q", c.TTSEngine)
	}
	switch c.TurnQueuePolicy {
	case "drop_oldest", "reject":
	default:
		return fmt.Errorf("unknown TURN_QUEUE_POLICY %q", c.TurnQueuePolicy)
	}
	return nil
}

// FrameBytes returns the size of one audio frame in bytes
// (16-bit mono samples at the configured rate and frame duration)
func (c *Config) FrameBytes() int {
	return c.SampleRate * c.FrameMs / 1000 * 2
}

// MinUtteranceBytes returns the minimum utterance buffer length in bytes
func (c *Config) MinUtteranceBytes() int {
	return c.SampleRate * c.MinUtteranceMs / 1000 * 2
}

// Terminations returns the parsed termination phrase set
func (c *Config) Terminations() []string {
	var out []string
	for _, p := range strings.Split(c.TerminationPhrases, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
