package callstore

import (
	"context"
	"sync"
	"time"
)

// Memory keeps call records in process memory. Used when no database is
// configured and in tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

func (m *Memory) Start(_ context.Context, sessionID string, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[sessionID]; exists {
		return nil
	}
	m.records[sessionID] = &Record{
		SessionID: sessionID,
		StartedAt: startedAt,
		Status:    StatusInProgress,
	}
	return nil
}

func (m *Memory) Finish(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *rec
	m.records[rec.SessionID] = &copied
	return nil
}

func (m *Memory) Get(_ context.Context, sessionID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) Close() {}
