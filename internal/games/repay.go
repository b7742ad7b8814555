package games

import "fmt"

// RepayDebt pays the fixed installment. Debt never goes below zero.
func (e *Engine) RepayDebt(state *State) Result {
	repay := e.rules.Repay
	if state.Debt <= 0 {
		return reject(ActionRepay, "Debt is already paid off")
	}
	if state.Money < repay.MinAmount {
		return reject(ActionRepay, "Not enough money to pay the debt")
	}

	before := *state
	state.Money -= repay.MinAmount
	state.Debt = max(0, state.Debt-repay.MinAmount)
	state.Reputation = addSat(state.Reputation, repay.ReputationGain)

	return accept(ActionRepay, before, state,
		fmt.Sprintf("You paid %d of debt and raised your reputation", repay.MinAmount))
}

// RepayDebtWithAmount pays min(amount, debt) and grants one reputation
// point per full ReputationInterval repaid.
func (e *Engine) RepayDebtWithAmount(state *State, amount int) Result {
	repay := e.rules.Repay
	if state.Debt <= 0 {
		return reject(ActionRepay, "Debt is already paid off")
	}
	if amount < repay.MinAmount {
		return reject(ActionRepay, fmt.Sprintf("Minimum repayment is %d", repay.MinAmount))
	}
	if state.Money < amount {
		return reject(ActionRepay, "Not enough money for this repayment")
	}

	before := *state
	actual := min(amount, state.Debt)
	state.Money -= actual
	state.Debt -= actual

	gain := actual / repay.ReputationInterval
	if gain > 0 {
		state.Reputation = addSat(state.Reputation, gain)
	}

	return accept(ActionRepay, before, state,
		fmt.Sprintf("You repaid %d of debt (+%d reputation)", actual, gain))
}

// RepayAmount binds an amount, producing an ActionFunc.
func (e *Engine) RepayAmount(amount int) ActionFunc {
	return func(state *State) Result {
		return e.RepayDebtWithAmount(state, amount)
	}
}
