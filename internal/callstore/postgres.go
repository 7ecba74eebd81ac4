package callstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const schema = `
CREATE TABLE IF NOT EXISTS call_records (
	session_id       TEXT PRIMARY KEY,
	started_at       TIMESTAMPTZ NOT NULL,
	ended_at         TIMESTAMPTZ,
	duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	transcript       TEXT NOT NULL DEFAULT '',
	intent           TEXT NOT NULL DEFAULT '',
	emergency        BOOLEAN NOT NULL DEFAULT FALSE,
	status           TEXT NOT NULL DEFAULT 'in_progress'
)`

// Postgres stores call records in a Postgres table, one row per session
type Postgres struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres connects to the database and ensures the call_records table
// exists.
func NewPostgres(ctx context.Context, dsn string, logger zerolog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating call_records table: %w", err)
	}
	return &Postgres{
		pool:   pool,
		logger: logger.With().Str("component", "callstore").Logger(),
	}, nil
}

func (p *Postgres) Start(ctx context.Context, sessionID string, startedAt time.Time) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO call_records (session_id, started_at, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO NOTHING`,
		sessionID, startedAt, StatusInProgress)
	if err != nil {
		return fmt.Errorf("starting call record: %w", err)
	}
	return nil
}

func (p *Postgres) Finish(ctx context.Context, rec *Record) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO call_records
			(session_id, started_at, ended_at, duration_seconds, transcript, intent, emergency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO UPDATE SET
			ended_at         = EXCLUDED.ended_at,
			duration_seconds = EXCLUDED.duration_seconds,
			transcript       = EXCLUDED.transcript,
			intent           = EXCLUDED.intent,
			emergency        = EXCLUDED.emergency,
			status           = EXCLUDED.status`,
		rec.SessionID, rec.StartedAt, rec.EndedAt, rec.DurationSeconds,
		rec.Transcript, rec.Intent, rec.Emergency, rec.Status)
	if err != nil {
		return fmt.Errorf("finishing call record: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, sessionID string) (*Record, error) {
	var rec Record
	err := p.pool.QueryRow(ctx, `
		SELECT session_id, started_at, COALESCE(ended_at, 'epoch'::timestamptz),
		       duration_seconds, transcript, intent, emergency, status
		FROM call_records WHERE session_id = $1`, sessionID).
		Scan(&rec.SessionID, &rec.StartedAt, &rec.EndedAt, &rec.DurationSeconds,
			&rec.Transcript, &rec.Intent, &rec.Emergency, &rec.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading call record: %w", err)
	}
	return &rec, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
