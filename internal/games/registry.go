package games

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	ActionGamble = "gamble"
	ActionWork   = "work"
	ActionShady  = "shady"
	ActionBorrow = "borrow"
	ActionCredit = "credit"
	ActionHelp   = "help"
	ActionRepay  = "repay"
	ActionReset  = "reset"
)

// ActionSpec describes a named action.
type ActionSpec struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description"`
}

var actionSpecs = []ActionSpec{
	{ID: ActionGamble, Name: "Casino", Aliases: []string{"casino", "play"}, Description: "stake the current bet on a coin flip"},
	{ID: ActionWork, Name: "Side job", Aliases: []string{"job"}, Description: "trade energy for money and reputation"},
	{ID: ActionShady, Name: "Shady deal", Aliases: []string{"deal"}, Description: "big payout at the cost of reputation"},
	{ID: ActionBorrow, Name: "Borrow", Aliases: []string{"loan", "beg"}, Description: "ask a friend for money"},
	{ID: ActionCredit, Name: "Take credit", Aliases: []string{"bank"}, Description: "borrow from the bank with interest"},
	{ID: ActionHelp, Name: "Help a friend", Aliases: []string{"friend"}, Description: "spend energy to gain reputation"},
	{ID: ActionRepay, Name: "Repay debt", Aliases: []string{"pay"}, Description: "pay down the debt"},
	{ID: ActionReset, Name: "Reset", Description: "start over from the defaults"},
}

// maxSuggestDistance bounds how far a typo may be from a known name.
const maxSuggestDistance = 2

// Actions lists every action in display order.
func Actions() []ActionSpec {
	out := make([]ActionSpec, len(actionSpecs))
	copy(out, actionSpecs)
	return out
}

// Lookup resolves an action ID or alias, case-insensitively.
func Lookup(name string) (ActionSpec, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, spec := range actionSpecs {
		if spec.ID == name {
			return spec, true
		}
		for _, alias := range spec.Aliases {
			if alias == name {
				return spec, true
			}
		}
	}
	return ActionSpec{}, false
}

// Suggest returns the action ID closest to name, if any is near enough.
func Suggest(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, spec := range actionSpecs {
		for _, candidate := range append([]string{spec.ID}, spec.Aliases...) {
			if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
				best, bestDist = spec.ID, d
			}
		}
	}
	return best, best != ""
}

// Action returns the engine method registered under id.
func (e *Engine) Action(id string) (ActionFunc, bool) {
	switch id {
	case ActionGamble:
		return e.Gamble, true
	case ActionWork:
		return e.WorkJob, true
	case ActionShady:
		return e.ShadyDeal, true
	case ActionBorrow:
		return e.BorrowMoney, true
	case ActionCredit:
		return e.TakeCredit, true
	case ActionHelp:
		return e.HelpFriend, true
	case ActionRepay:
		return e.RepayDebt, true
	case ActionReset:
		return e.ResetGame, true
	}
	return nil, false
}
