package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/dodepa/internal/games"
)

// Run is a finished autoplay run.
type Run struct {
	ID           uuid.UUID   `json:"id"`
	SessionID    uuid.UUID   `json:"session_id"`
	ScriptSource string      `json:"script_source"`
	Steps        int         `json:"steps"`
	Accepted     int         `json:"accepted"`
	Rejected     int         `json:"rejected"`
	Reason       string      `json:"reason"`
	StopMessage  string      `json:"stop_message,omitempty"`
	Final        games.State `json:"final"`
	CreatedAt    time.Time   `json:"created_at"`
}

const runColumns = `id, session_id, script_source, steps, accepted, rejected, reason, stop_message,
	money, energy, reputation, debt, bet, created_at`

// RecordRun stores r. A zero CreatedAt is set to now.
func (s *SQLite) RecordRun(ctx context.Context, r Run) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO autoplay_runs(`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.SessionID.String(), r.ScriptSource, r.Steps, r.Accepted, r.Rejected, r.Reason, r.StopMessage,
		r.Final.Money, r.Final.Energy, r.Final.Reputation, r.Final.Debt, r.Final.Bet, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}
	return nil
}

// GetRun fetches a run by ID.
func (s *SQLite) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM autoplay_runs WHERE id = ?`, id.String())
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("store: run %s: %w", id, ErrNotFound)
	}
	return r, err
}

// ListRuns returns runs newest first.
func (s *SQLite) ListRuns(ctx context.Context, limit, offset int) ([]Run, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM autoplay_runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM autoplay_runs ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, r)
	}
	return runs, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r           Run
		id, session string
	)
	err := row.Scan(&id, &session, &r.ScriptSource, &r.Steps, &r.Accepted, &r.Rejected, &r.Reason, &r.StopMessage,
		&r.Final.Money, &r.Final.Energy, &r.Final.Reputation, &r.Final.Debt, &r.Final.Bet, &r.CreatedAt)
	if err != nil {
		return Run{}, err
	}
	if r.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("store: run id %q: %w", id, err)
	}
	if r.SessionID, err = uuid.Parse(session); err != nil {
		return Run{}, fmt.Errorf("store: run session %q: %w", session, err)
	}
	return r, nil
}
