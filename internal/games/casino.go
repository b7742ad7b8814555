package games

import "fmt"

// Gamble stakes the current bet. The stake is taken before the draw; a win
// pays floor(bet * (1.5 + 3u)) on top, a loss refunds a little energy.
func (e *Engine) Gamble(state *State) Result {
	c := e.rules.Casino
	if state.Bet < e.rules.MinBet {
		return reject(ActionGamble, fmt.Sprintf("Minimum bet is %d", e.rules.MinBet))
	}
	if state.Money < state.Bet {
		return reject(ActionGamble, "Not enough money for this bet")
	}

	before := *state
	state.Money -= state.Bet

	if e.rng.Float64() < c.WinChance {
		multiplier := c.WinMultiplierBase + e.rng.Float64()*c.WinMultiplierRange
		win := floorSat(float64(state.Bet) * multiplier)
		state.Money = addSat(state.Money, win)
		return accept(ActionGamble, before, state, fmt.Sprintf("You won %d!", win))
	}

	state.Energy = addSat(state.Energy, c.LossEnergyBonus)
	return accept(ActionGamble, before, state,
		fmt.Sprintf("Lost... but the thrill gives +%d energy", c.LossEnergyBonus))
}
