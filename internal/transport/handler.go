// Package transport owns the websocket side of a call: connection lifecycle,
// inbound audio and control messages, the per-session turn queue, and the
// paired text-then-audio reply protocol.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/careline/voice-gateway/internal/audio"
	"github.com/careline/voice-gateway/internal/auth"
	"github.com/careline/voice-gateway/internal/callstore"
	"github.com/careline/voice-gateway/internal/classify"
	"github.com/careline/voice-gateway/internal/config"
	"github.com/careline/voice-gateway/internal/observability"
	"github.com/careline/voice-gateway/internal/session"
	"github.com/careline/voice-gateway/internal/stt"
	"github.com/careline/voice-gateway/internal/tts"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from arbitrary origins; auth happens via
		// the token query parameter, not the origin header.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// inboundMessage is a text control message from the client
type inboundMessage struct {
	Type string `json:"type"` // "start", "speech" or "end"
	Text string `json:"text,omitempty"`
}

// outboundMessage is a text message to the client. Binary audio for a reply
// always follows its outboundMessage on the wire.
type outboundMessage struct {
	Type    string `json:"type"` // "transcript" or "response"
	Text    string `json:"text"`
	Role    string `json:"role"`
	EndCall bool   `json:"endcall,omitempty"`
}

// turn is one unit of work for the session's turn worker: either an audio
// utterance awaiting transcription or a directly injected transcript.
type turn struct {
	text  string
	audio []byte
}

// Handler accepts websocket connections and runs one call per connection
type Handler struct {
	cfg          *config.Config
	transcriber  *stt.Transcriber
	synthesizer  *tts.Synthesizer
	orchestrator *session.Orchestrator
	validator    auth.Validator
	store        callstore.Store
	logger       zerolog.Logger
}

// NewHandler wires the pipeline stages behind a websocket endpoint
func NewHandler(
	cfg *config.Config,
	transcriber *stt.Transcriber,
	synthesizer *tts.Synthesizer,
	orchestrator *session.Orchestrator,
	validator auth.Validator,
	store callstore.Store,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		cfg:          cfg,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		orchestrator: orchestrator,
		validator:    validator,
		store:        store,
		logger:       logger.With().Str("component", "transport").Logger(),
	}
}

// ServeWS upgrades the request and runs the call to completion
func (h *Handler) ServeWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to upgrade connection")
			return
		}
		defer conn.Close()

		h.runCall(r.Context(), conn, r.URL.Query().Get("token"))
	}
}

// callConn is the per-connection state. The read loop and the turn worker
// are the only goroutines touching it; writes to the socket are serialized
// by writeMu so a reply's text and audio are never interleaved with another.
type callConn struct {
	h    *Handler
	conn *websocket.Conn
	sess *session.Session

	assembler *audio.FrameAssembler
	segmenter *audio.Segmenter
	discarded uint64

	turns      chan turn
	done       chan struct{}
	workerDone chan struct{}
	cancel     context.CancelFunc
	closeOnce  sync.Once

	writeMu sync.Mutex

	metrics *observability.Metrics
	logger  zerolog.Logger
}

func (h *Handler) runCall(ctx context.Context, conn *websocket.Conn, token string) {
	// The turn worker's context so an in-flight STT/dialogue/TTS call can be
	// aborted when the connection goes away.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := session.New(h.cfg.DefaultLanguage)
	logger := observability.WithSession(h.logger, sess.ID)
	metrics := observability.NewSessionMetrics(sess.ID)
	metrics.RecordSessionStart()

	c := &callConn{
		h:         h,
		conn:      conn,
		sess:      sess,
		assembler: audio.NewFrameAssembler(h.cfg.FrameBytes()),
		segmenter: audio.NewSegmenter(
			audio.NewEnergyClassifier(h.cfg.FrameBytes(), h.cfg.VADEnergyThreshold),
			audio.SegmenterConfig{
				PrerollFrames: h.cfg.PrerollFrames,
				SilenceFrames: h.cfg.SilenceFrames,
				MinBytes:      h.cfg.MinUtteranceBytes(),
			},
			logger,
		),
		turns:      make(chan turn, h.cfg.TurnQueueSize),
		done:       make(chan struct{}),
		workerDone: make(chan struct{}),
		cancel:     cancel,
		metrics:    metrics,
		logger:     logger,
	}

	c.authenticate(ctx, token)

	sess.SetState(session.StateActive)
	if err := h.store.Start(ctx, sess.ID, sess.StartedAt); err != nil {
		logger.Error().Err(err).Msg("Failed to start call record")
	}
	logger.Info().Bool("authenticated", sess.Identity != nil).Msg("Call started")

	go c.turnWorker(ctx)

	c.greet(ctx)
	c.readLoop()

	c.shutdown()
	c.finalize()
	metrics.RecordSessionEnd()
	logger.Info().Msg("Call ended")
}

// authenticate resolves the optional bearer token. Failures downgrade the
// session to anonymous, they never reject the call.
func (c *callConn) authenticate(ctx context.Context, token string) {
	if c.h.validator == nil || token == "" {
		return
	}
	c.sess.SetState(session.StateAuthenticating)
	identity, err := c.h.validator.Validate(ctx, token)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Auth validation failed, continuing unauthenticated")
		c.metrics.RecordError("auth_failure", "transport")
		return
	}
	c.sess.Identity = identity
}

// greet speaks the opening line so the caller hears something immediately
func (c *callConn) greet(ctx context.Context) {
	c.sess.AppendTurn("assistant", session.GreetingReply)
	c.sendReply(ctx, &session.Reply{
		Text:     session.GreetingReply,
		Language: c.sess.Language(),
	})
}

// readLoop drains the socket until disconnect or an explicit end message.
// It never blocks on pipeline work: utterances and injected transcripts go
// through the bounded turn queue.
func (c *callConn) readLoop() {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			c.handleAudio(data)
		case websocket.TextMessage:
			if end := c.handleControl(data); end {
				return
			}
		}

		select {
		case <-c.done:
			return
		default:
		}
	}
}

func (c *callConn) handleAudio(chunk []byte) {
	c.metrics.RecordAudioBytes("in", int64(len(chunk)))
	for _, frame := range c.assembler.Push(chunk) {
		utterance := c.segmenter.Process(frame)
		if utterance == nil {
			if n := c.segmenter.Discarded(); n > c.discarded {
				c.metrics.RecordUtteranceDiscarded()
				c.discarded = n
			}
			continue
		}
		c.metrics.RecordUtterance()
		c.enqueue(turn{audio: utterance})
	}
}

func (c *callConn) handleControl(data []byte) (end bool) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Error().Err(err).Msg("Failed to parse control message")
		return false
	}

	switch msg.Type {
	case "start":
		c.logger.Debug().Msg("Client signaled start")
	case "speech":
		// Typed input takes the same path as audio-derived transcripts
		c.enqueue(turn{text: msg.Text})
	case "end":
		c.logger.Info().Msg("Client signaled end")
		return true
	default:
		c.logger.Warn().Str("type", msg.Type).Msg("Unknown control message")
	}
	return false
}

// enqueue adds a turn to the bounded queue. Only the read loop calls this,
// so the drop-oldest drain cannot race another producer.
func (c *callConn) enqueue(t turn) {
	if c.h.cfg.TurnQueuePolicy == "reject" {
		select {
		case c.turns <- t:
		default:
			c.logger.Warn().Msg("Turn queue full, rejecting newest turn")
			c.metrics.RecordTurnDropped("reject")
		}
		return
	}

	for {
		select {
		case c.turns <- t:
			return
		default:
			select {
			case <-c.turns:
				c.logger.Warn().Msg("Turn queue full, dropping oldest turn")
				c.metrics.RecordTurnDropped("drop_oldest")
			default:
			}
		}
	}
}

// turnWorker runs turns strictly one at a time for this session
func (c *callConn) turnWorker(ctx context.Context) {
	defer close(c.workerDone)
	for {
		select {
		case <-c.done:
			return
		case t := <-c.turns:
			c.runTurn(ctx, t)
		}
	}
}

func (c *callConn) runTurn(ctx context.Context, t turn) {
	transcript := t.text
	if t.audio != nil {
		c.metrics.RecordSTTStart()
		text, err := c.h.transcriber.Transcribe(ctx, t.audio)
		c.metrics.RecordSTTEnd(err == nil)
		if err != nil {
			c.logger.Error().Err(err).Msg("Transcription failed")
			return
		}
		transcript = text
	}
	if transcript == "" {
		return
	}

	c.sendText(&outboundMessage{Type: "transcript", Text: transcript, Role: "user"})

	reply, err := c.h.orchestrator.HandleTurn(ctx, c.sess, transcript)
	if err != nil || reply == nil {
		if err != nil {
			c.logger.Error().Err(err).Msg("Turn failed")
		}
		return
	}

	c.sendReply(ctx, reply)

	if reply.EndCall {
		c.close()
	}
}

// sendReply synthesizes and emits one assistant reply: the text message
// first, then its audio bytes, with nothing interleaved between them.
func (c *callConn) sendReply(ctx context.Context, reply *session.Reply) {
	c.metrics.RecordTTSStart()
	audioData, err := c.h.synthesizer.Synthesize(ctx, reply.Text, reply.Language)
	c.metrics.RecordTTSEnd(err == nil && audioData != nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("Synthesis failed")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	msg := &outboundMessage{
		Type:    "response",
		Text:    reply.Text,
		Role:    "assistant",
		EndCall: reply.EndCall,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Error().Err(err).Msg("Failed to write response message")
		return
	}
	if audioData != nil {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, audioData); err != nil {
			c.logger.Error().Err(err).Msg("Failed to write response audio")
			return
		}
		c.metrics.RecordAudioBytes("out", int64(len(audioData)))
	}
}

func (c *callConn) sendText(msg *outboundMessage) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Error().Err(err).Msg("Failed to write message")
	}
}

// close unblocks the read loop and turn worker
func (c *callConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		// Nudge the read loop off its blocking read
		deadline := time.Now().Add(time.Second)
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()
		c.conn.SetReadDeadline(time.Now())
	})
}

func (c *callConn) shutdown() {
	c.close()
	// Abort any in-flight turn, then wait for the worker to exit. The
	// session must not be read for finalization while the worker can still
	// append to its history.
	c.cancel()
	<-c.workerDone
	c.sess.SetState(session.StateClosing)
}

// finalize flushes the call record. Runs after the socket is gone, so it
// uses its own short-lived context.
func (c *callConn) finalize() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transcript := c.sess.Transcript()
	status := callstore.StatusCompleted
	if c.sess.Emergency() {
		status = callstore.StatusEmergency
	}

	ended := time.Now()
	rec := &callstore.Record{
		SessionID:       c.sess.ID,
		StartedAt:       c.sess.StartedAt,
		EndedAt:         ended,
		DurationSeconds: ended.Sub(c.sess.StartedAt).Seconds(),
		Transcript:      transcript,
		Intent:          classify.Intent(transcript),
		Emergency:       c.sess.Emergency(),
		Status:          status,
	}
	if err := c.h.store.Finish(ctx, rec); err != nil {
		c.logger.Error().Err(err).Msg("Failed to finalize call record")
	}
}
