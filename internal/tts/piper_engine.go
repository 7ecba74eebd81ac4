package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/careline/voice-gateway/internal/config"
	"github.com/careline/voice-gateway/internal/resilience"
)

// PiperEngine synthesizes speech by piping text through the piper binary.
// Voice model artifacts are fetched lazily on first use and cached on disk.
type PiperEngine struct {
	binary     string
	voicesDir  string
	baseURL    string
	httpClient *http.Client
	retry      *resilience.RetryConfig
	logger     zerolog.Logger

	mu      sync.Mutex
	present map[string]bool // model files confirmed on disk
}

// NewPiperEngine creates a piper subprocess synthesis engine
func NewPiperEngine(cfg *config.Config, logger zerolog.Logger) *PiperEngine {
	return &PiperEngine{
		binary:     cfg.PiperBinary,
		voicesDir:  cfg.VoicesDir,
		baseURL:    strings.TrimRight(cfg.VoiceBaseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		retry: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
		logger:  logger,
		present: make(map[string]bool),
	}
}

// Name identifies the engine
func (e *PiperEngine) Name() string { return "piper" }

// Synthesize runs piper with the voice's model and returns raw PCM output
func (e *PiperEngine) Synthesize(ctx context.Context, text string, voice *Voice) ([]byte, error) {
	modelPath, err := e.ensureModel(ctx, voice)
	if err != nil {
		return nil, fmt.Errorf("voice %s unavailable: %w", voice.Language, err)
	}

	cmd := exec.CommandContext(ctx, e.binary,
		"--model", modelPath,
		"--output_raw",
	)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("piper produced no audio")
	}
	return stdout.Bytes(), nil
}

// ensureModel returns the local path of the voice's model, downloading the
// artifact and its config on first use.
func (e *PiperEngine) ensureModel(ctx context.Context, voice *Voice) (string, error) {
	modelPath := filepath.Join(e.voicesDir, filepath.Base(voice.ModelFile))

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.present[modelPath] {
		return modelPath, nil
	}
	if fileExists(modelPath) && fileExists(modelPath+".json") {
		e.present[modelPath] = true
		return modelPath, nil
	}

	e.logger.Info().
		Str("language", voice.Language).
		Str("model", voice.ModelFile).
		Msg("Downloading voice model")

	if err := os.MkdirAll(e.voicesDir, 0o755); err != nil {
		return "", fmt.Errorf("creating voices dir: %w", err)
	}

	url := e.baseURL + "/" + voice.ModelFile
	err := resilience.Retry(ctx, e.retry, func(ctx context.Context) error {
		if err := e.download(ctx, url, modelPath); err != nil {
			return err
		}
		return e.download(ctx, url+".json", modelPath+".json")
	})
	if err != nil {
		return "", fmt.Errorf("fetching voice model: %w", err)
	}

	e.present[modelPath] = true
	return modelPath, nil
}

func (e *PiperEngine) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned %d", url, resp.StatusCode)
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
