package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_gateway_active_sessions",
		Help: "Number of active voice sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_gateway_sessions_total",
		Help: "Total number of voice sessions handled",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_gateway_session_duration_seconds",
		Help:    "Duration of voice sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// Pipeline metrics
	utterancesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_gateway_utterances_total",
		Help: "Total number of utterances emitted by the segmenter",
	})

	utterancesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_gateway_utterances_discarded_total",
		Help: "Utterances discarded by the minimum-length guard",
	})

	turnsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_turns_dropped_total",
		Help: "Turn requests dropped by the per-session queue",
	}, []string{"policy"})

	sttRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_stt_requests_total",
		Help: "Total number of transcription requests",
	}, []string{"status"})

	sttLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_gateway_stt_latency_seconds",
		Help:    "Transcription latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	ttsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_tts_requests_total",
		Help: "Total number of synthesis requests",
	}, []string{"status"})

	ttsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_gateway_tts_latency_seconds",
		Help:    "Synthesis latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	dialogueRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_dialogue_requests_total",
		Help: "Total number of dialogue engine requests",
	}, []string{"status"})

	dialogueLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_gateway_dialogue_latency_seconds",
		Help:    "Dialogue engine latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})

	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"
)

// Metrics tracks per-session metric timestamps
type Metrics struct {
	sessionID    string
	startTime    time.Time
	sttStartTime time.Time
	ttsStartTime time.Time
	mu           sync.Mutex
}

// NewSessionMetrics creates a metrics tracker for one session
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordUtterance records an utterance emitted by the segmenter
func (m *Metrics) RecordUtterance() {
	utterancesEmitted.Inc()
}

// RecordUtteranceDiscarded records an utterance rejected by the length guard
func (m *Metrics) RecordUtteranceDiscarded() {
	utterancesDiscarded.Inc()
}

// RecordTurnDropped records a turn request dropped by the session queue
func (m *Metrics) RecordTurnDropped(policy string) {
	turnsDropped.WithLabelValues(policy).Inc()
}

// RecordSTTStart records the start of transcription
func (m *Metrics) RecordSTTStart() {
	m.mu.Lock()
	m.sttStartTime = time.Now()
	m.mu.Unlock()
}

// RecordSTTEnd records the end of transcription
func (m *Metrics) RecordSTTEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.sttStartTime.IsZero() {
		sttLatency.Observe(time.Since(m.sttStartTime).Seconds())
	}
	sttRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordTTSStart records the start of synthesis
func (m *Metrics) RecordTTSStart() {
	m.mu.Lock()
	m.ttsStartTime = time.Now()
	m.mu.Unlock()
}

// RecordTTSEnd records the end of synthesis
func (m *Metrics) RecordTTSEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ttsStartTime.IsZero() {
		ttsLatency.Observe(time.Since(m.ttsStartTime).Seconds())
	}
	ttsRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordDialogue records one dialogue engine call. Latency is measured by
// the caller so the tracker holds no cross-call state for these; a tracker
// may back concurrent sessions.
func (m *Metrics) RecordDialogue(elapsed time.Duration, success bool) {
	dialogueLatency.Observe(elapsed.Seconds())
	dialogueRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes processed
func (m *Metrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
