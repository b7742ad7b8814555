package autoplay

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/MJE43/dodepa/internal/engine"
	"github.com/MJE43/dodepa/internal/games"
)

// LogEntry is one log() call made by a script.
type LogEntry struct {
	Step    int    `json:"step"`
	Message string `json:"message"`
}

// ErrNoNext is returned when a script does not define next().
var ErrNoNext = errors.New("autoplay: script must define a next() function")

// ErrTimeout is returned when a script call exceeds its time budget.
var ErrTimeout = errors.New("autoplay: script timed out")

// vm wraps a goja runtime with the sandbox and the injected globals.
type vm struct {
	runtime *goja.Runtime
	rng     *engine.Mulberry32

	mu            sync.Mutex
	logs          []LogEntry
	maxLogs       int
	step          int
	stopRequested bool
	stopMessage   string
	pendingBet    *float64
}

// choice is what next() asked for.
type choice struct {
	action    string
	amount    int
	hasAmount bool
}

func newVM(seed uint32) *vm {
	v := &vm{
		runtime: goja.New(),
		rng:     engine.NewMulberry32(seed),
		maxLogs: 500,
	}
	v.injectGlobalFunctions()
	return v
}

func (v *vm) injectGlobalFunctions() {
	rt := v.runtime

	rt.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		v.mu.Lock()
		if len(v.logs) >= v.maxLogs {
			v.logs = v.logs[1:]
		}
		v.logs = append(v.logs, LogEntry{Step: v.step, Message: strings.Join(parts, " ")})
		v.mu.Unlock()
		return goja.Undefined()
	})

	console := rt.NewObject()
	console.Set("log", rt.Get("log"))
	rt.Set("console", console)

	// stop([message]) ends the run before the current choice is played.
	rt.Set("stop", func(call goja.FunctionCall) goja.Value {
		v.mu.Lock()
		v.stopRequested = true
		if len(call.Arguments) > 0 {
			v.stopMessage = call.Arguments[0].String()
		}
		v.mu.Unlock()
		return goja.Undefined()
	})

	// setbet(n) is applied by the runner once next() returns.
	rt.Set("setbet", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		bet := call.Arguments[0].ToFloat()
		v.mu.Lock()
		v.pendingBet = &bet
		v.mu.Unlock()
		return goja.Undefined()
	})

	rt.Set("random", func(goja.FunctionCall) goja.Value {
		return rt.ToValue(v.rng.Float64())
	})

	rt.Set("require", goja.Undefined())
	rt.Set("fetch", goja.Undefined())
	rt.Set("XMLHttpRequest", goja.Undefined())
	rt.Set("eval", goja.Undefined())
	rt.Set("Function", goja.Undefined())
}

// setState publishes the player's resources and the previous result.
func (v *vm) setState(st games.State, step int, last *games.Result) {
	v.mu.Lock()
	v.step = step
	v.mu.Unlock()

	rt := v.runtime
	rt.Set("money", st.Money)
	rt.Set("energy", st.Energy)
	rt.Set("reputation", st.Reputation)
	rt.Set("debt", st.Debt)
	rt.Set("bet", st.Bet)
	rt.Set("step", step)
	if last == nil {
		rt.Set("last", goja.Null())
		return
	}
	rt.Set("last", map[string]interface{}{
		"action":   last.Action,
		"accepted": last.Accepted,
		"message":  last.Message,
		"delta": map[string]interface{}{
			"money":      last.Delta.Money,
			"energy":     last.Delta.Energy,
			"reputation": last.Delta.Reputation,
			"debt":       last.Delta.Debt,
			"bet":        last.Delta.Bet,
		},
	})
}

func (v *vm) execute(source string, timeout time.Duration) error {
	return v.runWithTimeout(timeout, func() error {
		if _, err := v.runtime.RunString(source); err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
}

func (v *vm) hasNext() bool {
	fn := v.runtime.Get("next")
	if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
		return false
	}
	_, ok := goja.AssertFunction(fn)
	return ok
}

// callNext runs next() and decodes its return value. A null, undefined or
// empty result means the script is done.
func (v *vm) callNext(timeout time.Duration) (choice, error) {
	var out goja.Value
	err := v.runWithTimeout(timeout, func() error {
		callable, ok := goja.AssertFunction(v.runtime.Get("next"))
		if !ok {
			return ErrNoNext
		}
		res, err := callable(goja.Undefined())
		if err != nil {
			return fmt.Errorf("next() error: %w", err)
		}
		out = res
		return nil
	})
	if err != nil {
		return choice{}, err
	}
	return decodeChoice(out)
}

func decodeChoice(val goja.Value) (choice, error) {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return choice{}, nil
	}
	switch x := val.Export().(type) {
	case string:
		return choice{action: strings.TrimSpace(x)}, nil
	case map[string]interface{}:
		action, ok := x["action"].(string)
		if !ok {
			return choice{}, fmt.Errorf("next() returned an object without an action")
		}
		c := choice{action: strings.TrimSpace(action)}
		switch a := x["amount"].(type) {
		case nil:
		case int64:
			c.amount, c.hasAmount = int(a), true
		case float64:
			if math.IsNaN(a) || math.IsInf(a, 0) {
				return choice{}, fmt.Errorf("next() returned a non-finite amount")
			}
			c.amount, c.hasAmount = int(math.Floor(a)), true
		default:
			return choice{}, fmt.Errorf("next() returned amount of type %T", a)
		}
		return c, nil
	default:
		return choice{}, fmt.Errorf("next() must return an action name or {action, amount}, got %s", val.String())
	}
}

// takeBet returns and clears a bet requested with setbet().
func (v *vm) takeBet() (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pendingBet == nil {
		return 0, false
	}
	bet := *v.pendingBet
	v.pendingBet = nil
	return bet, true
}

func (v *vm) stopped() (bool, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stopRequested, v.stopMessage
}

func (v *vm) getLogs() []LogEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]LogEntry, len(v.logs))
	copy(out, v.logs)
	return out
}

func (v *vm) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		// Interrupt makes the script throw, so done always fires.
		v.runtime.Interrupt("script execution timeout")
		if err := <-done; err != nil {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return ErrTimeout
	}
}
