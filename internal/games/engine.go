package games

import (
	"time"

	"github.com/MJE43/dodepa/internal/engine"
)

// ActionFunc mutates state in place and reports the outcome.
type ActionFunc func(state *State) Result

// Engine runs actions against a State. It holds no state of its own beyond
// the rules and the random source; callers own the State.
type Engine struct {
	rules Rules
	rng   engine.Source
}

// NewEngine creates an engine. A nil rng falls back to a time-seeded
// math/rand source.
func NewEngine(rules Rules, rng engine.Source) *Engine {
	if rng == nil {
		rng = engine.NewMathSource(time.Now().UnixNano())
	}
	return &Engine{rules: rules, rng: rng}
}

// Rules returns the rule set the engine was built with.
func (e *Engine) Rules() Rules {
	return e.rules
}

func (e *Engine) calculateReward(base, reputation int) int {
	return e.rules.Reward.Calculate(base, reputation, e.rng.Float64())
}

func accept(action string, before State, state *State, msg string) Result {
	return Result{
		Action:   action,
		Accepted: true,
		Message:  msg,
		Delta:    state.Sub(before),
	}
}

func reject(action, msg string) Result {
	return Result{Action: action, Message: msg}
}

const resetMessage = "Progress reset. Back in the game!"

// ResetGame overwrites every field with the configured defaults.
func (e *Engine) ResetGame(state *State) Result {
	before := *state
	*state = e.rules.Defaults
	return accept(ActionReset, before, state, resetMessage)
}
