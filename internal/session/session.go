// Package session holds per-connection conversation state and the turn
// orchestrator that advances it. A Session is owned by exactly one transport
// handler; nothing here is shared across connections.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/careline/voice-gateway/internal/dialogue"
)

// Lifecycle states of a session
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateActive
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Session is the conversation state for one live connection. It is mutated
// only by its owning transport goroutine and the single-flight turn worker,
// never concurrently.
type Session struct {
	ID        string
	Identity  *dialogue.Identity
	StartedAt time.Time

	state      State
	history    []dialogue.HistoryEntry
	language   string
	retryCount int
	emergency  bool
}

// New creates a session in the connecting state
func New(defaultLanguage string) *Session {
	return &Session{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		state:     StateConnecting,
		language:  defaultLanguage,
	}
}

// SetState advances the lifecycle state
func (s *Session) SetState(state State) {
	s.state = state
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return s.state
}

// Language returns the language of the most recent reply
func (s *Session) Language() string {
	return s.language
}

// Emergency reports whether any turn in the session flagged an emergency
func (s *Session) Emergency() bool {
	return s.emergency
}

// MarkEmergency latches the emergency flag for the rest of the call
func (s *Session) MarkEmergency() {
	s.emergency = true
}

// AppendTurn records one exchange in the session history
func (s *Session) AppendTurn(role, text string) {
	s.history = append(s.history, dialogue.HistoryEntry{Role: role, Text: text})
}

// HistoryWindow returns up to n trailing history entries
func (s *Session) HistoryWindow(n int) []dialogue.HistoryEntry {
	if n <= 0 || len(s.history) <= n {
		return s.history
	}
	return s.history[len(s.history)-n:]
}

// Transcript joins the full history into the form stored on call records
func (s *Session) Transcript() string {
	var b []byte
	for i, entry := range s.history {
		if i > 0 {
			b = append(b, '\n')
		}
		b = append(b, entry.Role...)
		b = append(b, ": "...)
		b = append(b, entry.Text...)
	}
	return string(b)
}
