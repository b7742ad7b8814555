// Package session owns the canonical game state for one player: it applies
// engine actions, keeps the bounded narrative log, persists after every
// change and tells observers about it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/MJE43/dodepa/internal/engine"
	"github.com/MJE43/dodepa/internal/games"
	"github.com/MJE43/dodepa/internal/store"
)

// DefaultKey is the storage key a session persists under.
const DefaultKey = "dodepaSave"

// ErrUnknownAction is returned by Dispatch for names not in the registry.
var ErrUnknownAction = errors.New("session: unknown action")

// Recorder receives every dispatched action. store.SQLite implements it.
type Recorder interface {
	RecordAction(ctx context.Context, sessionID uuid.UUID, res games.Result, after games.State) error
}

// Config wires a session. Only Rules are validated; every other field has
// a usable zero value.
type Config struct {
	// Backend persists the record. Nil means an ephemeral session.
	Backend store.Backend
	// Source feeds the engine. Nil means a time-seeded math source.
	Source engine.Source
	// Rules defaults to games.DefaultRules() when nil.
	Rules    *games.Rules
	Key      string
	Logger   *slog.Logger
	Recorder Recorder
}

// Snapshot is a copy of everything observers can see.
type Snapshot struct {
	State games.State `json:"state"`
	Logs  []string    `json:"logs"`
}

// Session is not safe for concurrent use.
type Session struct {
	ctx      context.Context
	id       uuid.UUID
	engine   *games.Engine
	rules    games.Rules
	backend  store.Backend
	key      string
	logger   *slog.Logger
	recorder Recorder

	state games.State
	logs  []string

	observers  []observer
	observerID int
}

type observer struct {
	id int
	fn func(Snapshot)
}

// New builds a session and loads any persisted record. Loading never fails;
// unreadable saves are logged and replaced by defaults.
func New(ctx context.Context, cfg Config) (*Session, error) {
	rules := games.DefaultRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Session{
		ctx:      ctx,
		id:       uuid.New(),
		engine:   games.NewEngine(rules, cfg.Source),
		rules:    rules,
		backend:  cfg.Backend,
		key:      cfg.Key,
		recorder: cfg.Recorder,
	}
	s.logger = cfg.Logger.With("session", s.id.String())
	s.load()
	return s, nil
}

func (s *Session) load() {
	s.state, s.logs = s.rules.Defaults, []string{}
	if s.backend == nil {
		return
	}

	raw, err := s.backend.Get(s.ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("load failed, starting fresh", "key", s.key, "error", err)
		return
	}

	if err := ValidateRecord(raw); err != nil {
		s.logger.Warn("save does not match schema, salvaging fields", "key", s.key, "error", err)
	}
	state, logs, err := decodeRecord(raw, s.rules)
	if err != nil {
		s.logger.Warn("failed to parse save, starting fresh", "key", s.key, "error", err)
		return
	}
	s.state, s.logs = state, logs
	s.logger.Debug("save loaded", "key", s.key, "money", state.Money, "logs", len(logs))
}

// ID identifies this session in the journal.
func (s *Session) ID() uuid.UUID { return s.id }

// Rules returns the rule set in force.
func (s *Session) Rules() games.Rules { return s.rules }

func (s *Session) Money() int      { return s.state.Money }
func (s *Session) Energy() int     { return s.state.Energy }
func (s *Session) Reputation() int { return s.state.Reputation }
func (s *Session) Debt() int       { return s.state.Debt }
func (s *Session) Bet() int        { return s.state.Bet }

// Stats returns a copy of the current resources.
func (s *Session) Stats() games.State { return s.state }

// Logs returns a copy of the narrative log, newest first.
func (s *Session) Logs() []string { return slices.Clone(s.logs) }

func (s *Session) Snapshot() Snapshot {
	return Snapshot{State: s.state, Logs: s.Logs()}
}

// Subscribe registers fn to run after every state change. The returned
// function removes it.
func (s *Session) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.observerID++
	id := s.observerID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	return func() {
		s.observers = slices.DeleteFunc(s.observers, func(o observer) bool { return o.id == id })
	}
}

func (s *Session) PlayCasino() games.Result  { return s.run(s.engine.Gamble) }
func (s *Session) WorkJob() games.Result     { return s.run(s.engine.WorkJob) }
func (s *Session) ShadyDeal() games.Result   { return s.run(s.engine.ShadyDeal) }
func (s *Session) BorrowMoney() games.Result { return s.run(s.engine.BorrowMoney) }
func (s *Session) TakeCredit() games.Result  { return s.run(s.engine.TakeCredit) }
func (s *Session) HelpFriend() games.Result  { return s.run(s.engine.HelpFriend) }
func (s *Session) RepayDebt() games.Result   { return s.run(s.engine.RepayDebt) }

// RepayDebtAmount repays a chosen amount, subject to the minimum repayment.
func (s *Session) RepayDebtAmount(amount int) games.Result {
	return s.run(s.engine.RepayAmount(amount))
}

// ResetGame restores the defaults, leaves only the reset message in the
// log and rewrites the persisted record from scratch.
func (s *Session) ResetGame() games.Result {
	state := s.state
	res := s.engine.ResetGame(&state)
	s.state = s.rules.Clamp(state)
	s.logs = games.PrependLog([]string{}, res.Message, s.rules.LogLimit)

	if s.backend != nil {
		if err := s.backend.Delete(s.ctx, s.key); err != nil {
			s.logger.Warn("clear save failed", "key", s.key, "error", err)
		}
	}
	s.persist()
	s.record(res)
	s.notify()
	return res
}

// SetBet stores a new stake. Non-finite values, and values too large for
// an int, fall back to the minimum bet; fractions are floored.
func (s *Session) SetBet(value float64) {
	bet, ok := floorInt(value)
	if !ok {
		bet = s.rules.MinBet
	}
	s.state.Bet = max(bet, s.rules.MinBet)
	s.persist()
	s.notify()
}

// Dispatch runs the action registered under name or one of its aliases.
func (s *Session) Dispatch(name string) (games.Result, error) {
	spec, ok := games.Lookup(name)
	if !ok {
		if hint, ok := games.Suggest(name); ok {
			return games.Result{}, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownAction, name, hint)
		}
		return games.Result{}, fmt.Errorf("%w %q", ErrUnknownAction, name)
	}
	if spec.ID == games.ActionReset {
		return s.ResetGame(), nil
	}
	fn, ok := s.engine.Action(spec.ID)
	if !ok {
		return games.Result{}, fmt.Errorf("%w %q", ErrUnknownAction, name)
	}
	return s.run(fn), nil
}

func (s *Session) run(action games.ActionFunc) games.Result {
	before := s.state
	state := s.state
	res := action(&state)

	s.state = s.rules.Clamp(state)
	if res.Accepted {
		res.Delta = s.state.Sub(before)
	}
	s.logs = games.PrependLog(s.logs, res.Message, s.rules.LogLimit)

	if res.Accepted {
		s.logger.Debug("action applied", "action", res.Action, "money", s.state.Money, "energy", s.state.Energy)
	} else {
		s.logger.Info("action rejected", "action", res.Action, "reason", res.Message)
	}

	s.persist()
	s.record(res)
	s.notify()
	return res
}

func (s *Session) persist() {
	if s.backend == nil {
		return
	}
	raw, err := json.Marshal(newRecord(s.state, s.logs))
	if err != nil {
		s.logger.Error("encode save", "error", err)
		return
	}
	if err := s.backend.Set(s.ctx, s.key, raw); err != nil {
		s.logger.Warn("persist failed", "key", s.key, "error", err)
	}
}

func (s *Session) record(res games.Result) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordAction(s.ctx, s.id, res, s.state); err != nil {
		s.logger.Warn("journal write failed", "action", res.Action, "error", err)
	}
}

func (s *Session) notify() {
	if len(s.observers) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, o := range slices.Clone(s.observers) {
		o.fn(snap)
	}
}

// Export writes the current record as a compressed archive.
func (s *Session) Export(w io.Writer) error {
	raw, err := json.Marshal(newRecord(s.state, s.logs))
	if err != nil {
		return fmt.Errorf("session: encode record: %w", err)
	}
	return store.WriteArchive(w, raw)
}

// Import replaces the current state with an archive written by Export.
// Unlike loading, malformed records are rejected and leave the session
// untouched.
func (s *Session) Import(r io.Reader) error {
	raw, err := store.ReadArchive(r)
	if err != nil {
		return fmt.Errorf("session: import: %w", err)
	}
	if err := ValidateRecord(raw); err != nil {
		return err
	}
	state, logs, err := decodeRecord(raw, s.rules)
	if err != nil {
		return fmt.Errorf("session: import: %w", err)
	}
	s.state, s.logs = state, logs
	s.persist()
	s.notify()
	s.logger.Info("save imported", "money", state.Money, "logs", len(logs))
	return nil
}
