// Package autoplay drives a session with a JavaScript strategy script.
//
// A script defines next(), which is called before every step and returns
// either an action name ("work", "casino", ...) or an object
// {action: "repay", amount: 1500}. Returning null ends the run. The
// script sees money, energy, reputation, debt, bet, step and last (the
// previous result, or null) and may call log, stop, setbet and random.
package autoplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/dodepa/internal/games"
)

// Player is the part of a session the runner drives.
type Player interface {
	Stats() games.State
	Dispatch(name string) (games.Result, error)
	RepayDebtAmount(amount int) games.Result
	SetBet(value float64)
}

// StopReason says why a run ended.
type StopReason string

const (
	StopMaxSteps StopReason = "max_steps"
	StopScript   StopReason = "stopped"
	StopFinished StopReason = "finished"
	StopCanceled StopReason = "canceled"
	StopError    StopReason = "error"
)

const (
	DefaultMaxSteps = 100
	MaxStepsLimit   = 10000

	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

// Options tune a run. Zero values select the defaults.
type Options struct {
	MaxSteps    int
	Seed        uint32
	CallTimeout time.Duration
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	o.MaxSteps = min(o.MaxSteps, MaxStepsLimit)
	if o.CallTimeout <= 0 {
		o.CallTimeout = scriptCallTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Report summarizes a run.
type Report struct {
	RunID       uuid.UUID      `json:"run_id"`
	Steps       int            `json:"steps"`
	Accepted    int            `json:"accepted"`
	Rejected    int            `json:"rejected"`
	ByAction    map[string]int `json:"by_action"`
	Reason      StopReason     `json:"reason"`
	StopMessage string         `json:"stop_message,omitempty"`
	Final       games.State    `json:"final"`
	Logs        []LogEntry     `json:"logs"`
}

// Run executes source against p for at most opts.MaxSteps actions. The
// report is filled in even when an error ends the run.
func Run(ctx context.Context, p Player, source string, opts Options) (Report, error) {
	opts = opts.withDefaults()
	rep := Report{RunID: uuid.New(), ByAction: map[string]int{}}
	logger := opts.Logger.With("run", rep.RunID.String())

	v := newVM(opts.Seed)
	finish := func(reason StopReason, err error) (Report, error) {
		rep.Reason = reason
		rep.Final = p.Stats()
		rep.Logs = v.getLogs()
		if err != nil {
			logger.Warn("autoplay failed", "steps", rep.Steps, "error", err)
		} else {
			logger.Info("autoplay finished", "steps", rep.Steps, "reason", reason,
				"accepted", rep.Accepted, "rejected", rep.Rejected)
		}
		return rep, err
	}

	v.setState(p.Stats(), 0, nil)
	if err := v.execute(source, scriptInitTimeout); err != nil {
		return finish(StopError, err)
	}
	if !v.hasNext() {
		return finish(StopError, ErrNoNext)
	}

	var last *games.Result
	for rep.Steps < opts.MaxSteps {
		if ctx.Err() != nil {
			return finish(StopCanceled, nil)
		}

		v.setState(p.Stats(), rep.Steps, last)
		c, err := v.callNext(opts.CallTimeout)
		if err != nil {
			return finish(StopError, err)
		}
		if bet, ok := v.takeBet(); ok {
			p.SetBet(bet)
		}
		if stop, msg := v.stopped(); stop {
			rep.StopMessage = msg
			return finish(StopScript, nil)
		}
		if c.action == "" {
			return finish(StopFinished, nil)
		}

		res, err := play(p, c)
		if err != nil {
			return finish(StopError, fmt.Errorf("step %d: %w", rep.Steps, err))
		}
		rep.Steps++
		rep.ByAction[res.Action]++
		if res.Accepted {
			rep.Accepted++
		} else {
			rep.Rejected++
		}
		last = &res
	}
	return finish(StopMaxSteps, nil)
}

func play(p Player, c choice) (games.Result, error) {
	if c.hasAmount {
		spec, ok := games.Lookup(c.action)
		if !ok {
			return p.Dispatch(c.action)
		}
		if spec.ID != games.ActionRepay {
			return games.Result{}, errors.New("amount is only accepted for " + games.ActionRepay)
		}
		return p.RepayDebtAmount(c.amount), nil
	}
	return p.Dispatch(c.action)
}
