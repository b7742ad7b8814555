package games

import (
	"math"
	"strings"
)

// State is the mutable resource record every action operates on.
type State struct {
	Money      int `json:"money" yaml:"money"`
	Energy     int `json:"energy" yaml:"energy"`
	Reputation int `json:"reputation" yaml:"reputation"`
	Debt       int `json:"debt" yaml:"debt"`
	Bet        int `json:"bet" yaml:"bet"`
}

// Delta is the per-field difference produced by one action.
type Delta struct {
	Money      int `json:"money"`
	Energy     int `json:"energy"`
	Reputation int `json:"reputation"`
	Debt       int `json:"debt"`
	Bet        int `json:"bet"`
}

// IsZero reports whether no field changed.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Sub returns s - before.
func (s State) Sub(before State) Delta {
	return Delta{
		Money:      s.Money - before.Money,
		Energy:     s.Energy - before.Energy,
		Reputation: s.Reputation - before.Reputation,
		Debt:       s.Debt - before.Debt,
		Bet:        s.Bet - before.Bet,
	}
}

// Result is the outcome of a single action. Rejected actions carry an
// explanatory Message and a zero Delta.
type Result struct {
	Action   string `json:"action"`
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
	Delta    Delta  `json:"delta"`
}

// addSat returns a+b, saturating at the int bounds.
func addSat(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

// floorSat floors f into an int, saturating values an int cannot hold.
func floorSat(f float64) int {
	f = math.Floor(f)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt
	case f <= math.MinInt64:
		return math.MinInt
	}
	return int(f)
}

// NormalizeLogs drops blank entries and keeps at most limit entries,
// preserving newest-first order.
func NormalizeLogs(entries []string, limit int) []string {
	out := make([]string, 0, min(len(entries), limit))
	for _, e := range entries {
		if len(out) >= limit {
			break
		}
		if strings.TrimSpace(e) == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// PrependLog puts entry at the head of logs and truncates to limit.
// Empty entries leave logs untouched.
func PrependLog(logs []string, entry string, limit int) []string {
	if entry == "" {
		return logs
	}
	out := make([]string, 0, min(len(logs)+1, limit))
	out = append(out, entry)
	for _, l := range logs {
		if len(out) >= limit {
			break
		}
		out = append(out, l)
	}
	return out
}
