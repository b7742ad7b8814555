package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/dodepa/internal/games"
)

// JournalEntry is one dispatched action with the state it left behind.
type JournalEntry struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"session_id"`
	Action    string      `json:"action"`
	Accepted  bool        `json:"accepted"`
	Message   string      `json:"message"`
	Delta     games.Delta `json:"delta"`
	After     games.State `json:"after"`
	CreatedAt time.Time   `json:"created_at"`
}

// JournalSummary aggregates a session's journal.
type JournalSummary struct {
	Total    int64            `json:"total"`
	Accepted int64            `json:"accepted"`
	Rejected int64            `json:"rejected"`
	NetMoney int64            `json:"net_money"`
	ByAction map[string]int64 `json:"by_action"`
}

// RecordAction appends an entry to the journal.
func (s *SQLite) RecordAction(ctx context.Context, sessionID uuid.UUID, res games.Result, after games.State) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_journal(
			id, session_id, action, accepted, message,
			delta_money, delta_energy, delta_reputation, delta_debt,
			money, energy, reputation, debt, bet, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID.String(), res.Action, res.Accepted, res.Message,
		res.Delta.Money, res.Delta.Energy, res.Delta.Reputation, res.Delta.Debt,
		after.Money, after.Energy, after.Reputation, after.Debt, after.Bet, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: record action: %w", err)
	}
	return nil
}

// ListJournal returns entries newest first. A nil sessionID lists every
// session.
func (s *SQLite) ListJournal(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]JournalEntry, int64, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	where := "1=1"
	var args []any
	if sessionID != uuid.Nil {
		where = "session_id = ?"
		args = append(args, sessionID.String())
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM action_journal WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, action, accepted, message,
		       delta_money, delta_energy, delta_reputation, delta_debt,
		       money, energy, reputation, debt, bet, created_at
		FROM action_journal
		WHERE `+where+`
		ORDER BY rowid DESC
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var (
			e           JournalEntry
			id, session string
		)
		if err := rows.Scan(&id, &session, &e.Action, &e.Accepted, &e.Message,
			&e.Delta.Money, &e.Delta.Energy, &e.Delta.Reputation, &e.Delta.Debt,
			&e.After.Money, &e.After.Energy, &e.After.Reputation, &e.After.Debt, &e.After.Bet,
			&e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, 0, fmt.Errorf("store: journal id %q: %w", id, err)
		}
		if e.SessionID, err = uuid.Parse(session); err != nil {
			return nil, 0, fmt.Errorf("store: journal session %q: %w", session, err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// SummarizeJournal aggregates the entries of one session.
func (s *SQLite) SummarizeJournal(ctx context.Context, sessionID uuid.UUID) (JournalSummary, error) {
	sum := JournalSummary{ByAction: map[string]int64{}}
	rows, err := s.db.QueryContext(ctx, `
		SELECT action, COUNT(*), COALESCE(SUM(accepted), 0), COALESCE(SUM(delta_money), 0)
		FROM action_journal
		WHERE session_id = ?
		GROUP BY action`, sessionID.String())
	if err != nil {
		return sum, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			action                string
			count, accepted, cash int64
		)
		if err := rows.Scan(&action, &count, &accepted, &cash); err != nil {
			return sum, err
		}
		sum.ByAction[action] = count
		sum.Total += count
		sum.Accepted += accepted
		sum.NetMoney += cash
	}
	sum.Rejected = sum.Total - sum.Accepted
	return sum, rows.Err()
}
