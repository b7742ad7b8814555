package games

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// BorrowMoney asks a friend for money. Needs energy and a positive reputation.
func (e *Engine) BorrowMoney(state *State) Result {
	borrow := e.rules.Borrow
	if state.Energy < borrow.EnergyCost {
		return reject(ActionBorrow, "No strength to beg for money")
	}
	if state.Reputation <= 0 {
		return reject(ActionBorrow, "Nobody trusts you anymore")
	}

	before := *state
	amount := e.calculateReward(borrow.Base, state.Reputation)
	state.Money = addSat(state.Money, amount)
	state.Energy -= borrow.EnergyCost
	state.Reputation = addSat(state.Reputation, borrow.Reputation)

	return accept(ActionBorrow, before, state,
		fmt.Sprintf("A friend lent you %d (-%d energy, %+d reputation)", amount, borrow.EnergyCost, borrow.Reputation))
}

// TakeCredit borrows from the bank. The principal follows the hybrid
// formula; the debt grows by floor(principal * (1 + interest)) with
// interest drawn from [InterestMin, InterestMin+InterestRange).
func (e *Engine) TakeCredit(state *State) Result {
	credit := e.rules.Credit
	if state.Energy < credit.EnergyCost {
		return reject(ActionCredit, "No strength to apply for credit")
	}
	if state.Reputation-credit.ReputationLoss < 0 {
		return reject(ActionCredit, "The bank refused credit due to low reputation")
	}

	before := *state
	principal := e.calculateReward(credit.Base, state.Reputation)
	interest := credit.InterestMin + e.rng.Float64()*credit.InterestRange
	debtIncrease := creditDebt(principal, interest)

	state.Money = addSat(state.Money, principal)
	state.Debt = addSat(state.Debt, debtIncrease)
	state.Energy -= credit.EnergyCost
	state.Reputation -= credit.ReputationLoss

	return accept(ActionCredit, before, state,
		fmt.Sprintf("The bank granted %d, debt grew by %d (-%d energy, -%d reputation)",
			principal, debtIncrease, credit.EnergyCost, credit.ReputationLoss))
}

var maxDebt = decimal.NewFromInt(math.MaxInt64)

// creditDebt computes floor(principal * (1 + interest)) in decimal so the
// result does not depend on binary rounding of the product.
func creditDebt(principal int, interest float64) int {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(interest))
	debt := decimal.NewFromInt(int64(principal)).Mul(factor).Floor()
	if debt.GreaterThan(maxDebt) {
		return math.MaxInt
	}
	return int(debt.IntPart())
}
