// Package callstore persists call records. Every websocket session produces
// one record, created when the call starts and finalized when it ends.
package callstore

import (
	"context"
	"time"
)

// Call lifecycle states
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusEmergency  = "emergency"
)

// Record is the durable trace of one call
type Record struct {
	SessionID       string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationSeconds float64
	Transcript      string
	Intent          string
	Emergency       bool
	Status          string
}

// Store persists call records keyed by session id
type Store interface {
	// Start creates the record for a new call in progress
	Start(ctx context.Context, sessionID string, startedAt time.Time) error
	// Finish writes the final state of a completed call
	Finish(ctx context.Context, rec *Record) error
	// Get returns the record for a session, or nil if unknown
	Get(ctx context.Context, sessionID string) (*Record, error)
	// Ping reports whether the backing storage is reachable
	Ping(ctx context.Context) error
	// Close releases underlying resources
	Close()
}
