package session

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/careline/voice-gateway/internal/classify"
	"github.com/careline/voice-gateway/internal/config"
	"github.com/careline/voice-gateway/internal/dialogue"
	"github.com/careline/voice-gateway/internal/observability"
)

// Canned replies spoken when the pipeline cannot produce a real one
const (
	GreetingReply = "Hello! Welcome to the clinic. I am an AI assistant here to help you. How may I assist you today?"
	FarewellReply = "Goodbye! Take care."
	ApologyReply  = "I apologize, could you please repeat that?"
	TransferReply = "I'm having difficulty understanding. Let me transfer you to our staff. Please hold."
)

// Reply is the orchestrator's output for one user turn
type Reply struct {
	Text      string
	Language  string
	EndCall   bool
	Transfer  bool
	Emergency bool
}

// Orchestrator advances a session by one turn at a time. The transport
// guarantees single-flight per session; the orchestrator itself holds no
// cross-session state beyond its collaborator handles.
type Orchestrator struct {
	engine        dialogue.Engine
	terminations  []string
	historyWindow int
	maxRetries    int
	defaultLang   string
	logger        zerolog.Logger
	metrics       *observability.Metrics
}

// NewOrchestrator creates a turn orchestrator from gateway configuration
func NewOrchestrator(engine dialogue.Engine, cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	terminations := cfg.Terminations()
	for i, p := range terminations {
		terminations[i] = strings.ToLower(p)
	}
	return &Orchestrator{
		engine:        engine,
		terminations:  terminations,
		historyWindow: cfg.HistoryWindow,
		maxRetries:    cfg.MaxEngineRetries,
		defaultLang:   cfg.DefaultLanguage,
		logger:        logger.With().Str("component", "orchestrator").Logger(),
		metrics:       metrics,
	}
}

// HandleTurn processes one user transcript and returns the reply to speak.
// It mutates the session's history, language, retry counter, and emergency
// flag. A nil reply means the transcript carried no actionable speech.
func (o *Orchestrator) HandleTurn(ctx context.Context, sess *Session, transcript string) (*Reply, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, nil
	}

	logger := o.logger.With().Str("session_id", sess.ID).Logger()
	sess.AppendTurn("user", transcript)

	if o.isTermination(transcript) {
		logger.Info().Msg("Termination phrase detected, ending call")
		sess.AppendTurn("assistant", FarewellReply)
		sess.SetState(StateClosing)
		return &Reply{
			Text:     FarewellReply,
			Language: sess.Language(),
			EndCall:  true,
		}, nil
	}

	isEmergency, severity, _ := classify.Emergency(transcript)
	if isEmergency {
		logger.Warn().Str("severity", severity).Msg("Emergency keywords in transcript")
		sess.MarkEmergency()
	}

	start := time.Now()
	result, err := o.engine.Respond(ctx, &dialogue.Request{
		Text:      transcript,
		History:   sess.HistoryWindow(o.historyWindow),
		SessionID: sess.ID,
		Identity:  sess.Identity,
	})
	o.metrics.RecordDialogue(time.Since(start), err == nil)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return o.handleEngineFailure(sess, logger, err), nil
	}

	sess.retryCount = 0
	language := result.Metadata.Language
	if language == "" {
		language = o.defaultLang
	}
	sess.language = language
	sess.AppendTurn("assistant", result.Spoken)

	if result.Metadata.Emergency {
		logger.Warn().Msg("Dialogue engine flagged emergency")
		sess.MarkEmergency()
	}
	if result.Metadata.EndCall {
		sess.SetState(StateClosing)
	}

	return &Reply{
		Text:      result.Spoken,
		Language:  language,
		EndCall:   result.Metadata.EndCall,
		Transfer:  result.Metadata.Transfer,
		Emergency: result.Metadata.Emergency,
	}, nil
}

func (o *Orchestrator) handleEngineFailure(sess *Session, logger zerolog.Logger, err error) *Reply {
	sess.retryCount++
	o.metrics.RecordError("engine_failure", "orchestrator")
	logger.Error().
		Err(err).
		Int("retry_count", sess.retryCount).
		Msg("Dialogue engine failed")

	if sess.retryCount >= o.maxRetries {
		sess.AppendTurn("assistant", TransferReply)
		sess.SetState(StateClosing)
		return &Reply{
			Text:     TransferReply,
			Language: sess.Language(),
			EndCall:  true,
			Transfer: true,
		}
	}

	sess.AppendTurn("assistant", ApologyReply)
	return &Reply{
		Text:     ApologyReply,
		Language: sess.Language(),
	}
}

func (o *Orchestrator) isTermination(transcript string) bool {
	lower := strings.ToLower(transcript)
	for _, phrase := range o.terminations {
		if phrase != "" && strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
