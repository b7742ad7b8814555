package games

import "fmt"

// WorkJob trades energy for a hybrid reward and a reputation point.
func (e *Engine) WorkJob(state *State) Result {
	job := e.rules.Job
	if state.Energy < job.EnergyCost {
		return reject(ActionWork, "Too tired to work")
	}

	before := *state
	amount := e.calculateReward(job.Base, state.Reputation)
	state.Money = addSat(state.Money, amount)
	state.Energy -= job.EnergyCost
	state.Reputation = addSat(state.Reputation, job.Reputation)

	return accept(ActionWork, before, state,
		fmt.Sprintf("Side job paid +%d, took %d energy and gave %+d reputation", amount, job.EnergyCost, job.Reputation))
}

// ShadyDeal pays far more than WorkJob but costs reputation.
func (e *Engine) ShadyDeal(state *State) Result {
	deal := e.rules.Shady
	if state.Energy < deal.EnergyCost {
		return reject(ActionShady, "Too tired for shady business")
	}

	before := *state
	amount := e.calculateReward(deal.Base, state.Reputation)
	state.Money = addSat(state.Money, amount)
	state.Energy -= deal.EnergyCost
	state.Reputation = addSat(state.Reputation, deal.Reputation)

	return accept(ActionShady, before, state,
		fmt.Sprintf("Pulled a shady deal for +%d (-%d energy, %+d reputation)", amount, deal.EnergyCost, deal.Reputation))
}

// HelpFriend spends energy for reputation.
func (e *Engine) HelpFriend(state *State) Result {
	help := e.rules.Help
	if state.Energy < help.EnergyCost {
		return reject(ActionHelp, "You have no energy to help")
	}

	before := *state
	state.Energy -= help.EnergyCost
	state.Reputation = addSat(state.Reputation, help.ReputationGain)

	return accept(ActionHelp, before, state,
		fmt.Sprintf("You helped a friend: +%d reputation and -%d energy", help.ReputationGain, help.EnergyCost))
}
