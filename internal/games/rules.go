package games

import (
	"errors"
	"fmt"
)

// RewardRules parameterize the hybrid reward formula:
//
//	guaranteed = base * (GuaranteedShare + reputation/ReputationDivisor)
//	random     = base * u * RandomShare
//	bonus      = base * BonusShare when reputation > BonusThreshold
//	reward     = floor(guaranteed + random + bonus)
type RewardRules struct {
	GuaranteedShare   float64 `yaml:"guaranteed_share"`
	ReputationDivisor float64 `yaml:"reputation_divisor"`
	RandomShare       float64 `yaml:"random_share"`
	BonusThreshold    int     `yaml:"bonus_threshold"`
	BonusShare        float64 `yaml:"bonus_share"`
}

// Calculate applies the formula for a uniform draw u in [0, 1).
// There is no upper clamp on the guaranteed share.
func (r RewardRules) Calculate(base, reputation int, u float64) int {
	b := float64(base)
	guaranteed := b * (r.GuaranteedShare + float64(reputation)/r.ReputationDivisor)
	random := b * u * r.RandomShare
	bonus := 0.0
	if reputation > r.BonusThreshold {
		bonus = b * r.BonusShare
	}
	return floorSat(guaranteed + random + bonus)
}

// Gig describes an energy-for-money action. Reputation is the signed
// reputation change applied on success.
type Gig struct {
	EnergyCost int `yaml:"energy_cost"`
	Base       int `yaml:"base"`
	Reputation int `yaml:"reputation"`
}

type CreditRules struct {
	EnergyCost     int     `yaml:"energy_cost"`
	Base           int     `yaml:"base"`
	ReputationLoss int     `yaml:"reputation_loss"`
	InterestMin    float64 `yaml:"interest_min"`
	InterestRange  float64 `yaml:"interest_range"`
}

type HelpRules struct {
	EnergyCost     int `yaml:"energy_cost"`
	ReputationGain int `yaml:"reputation_gain"`
}

// RepayRules: MinAmount is both the fixed installment of RepayDebt and the
// smallest amount accepted by RepayDebtWithAmount.
type RepayRules struct {
	MinAmount          int `yaml:"min_amount"`
	ReputationGain     int `yaml:"reputation_gain"`
	ReputationInterval int `yaml:"reputation_interval"`
}

type CasinoRules struct {
	WinChance          float64 `yaml:"win_chance"`
	WinMultiplierBase  float64 `yaml:"win_multiplier_base"`
	WinMultiplierRange float64 `yaml:"win_multiplier_range"`
	LossEnergyBonus    int     `yaml:"loss_energy_bonus"`
}

// Rules holds every balance constant of the game.
type Rules struct {
	MinBet        int   `yaml:"min_bet"`
	MinReputation int   `yaml:"min_reputation"`
	LogLimit      int   `yaml:"log_limit"`
	Defaults      State `yaml:"defaults"`

	Reward RewardRules `yaml:"reward"`
	Casino CasinoRules `yaml:"casino"`
	Job    Gig         `yaml:"job"`
	Shady  Gig         `yaml:"shady_deal"`
	Borrow Gig         `yaml:"borrow"`
	Credit CreditRules `yaml:"credit"`
	Help   HelpRules   `yaml:"help"`
	Repay  RepayRules  `yaml:"repay"`
}

const (
	MinBet   = 50
	LogLimit = 20
)

// DefaultRules returns the hybrid-reward rule set.
func DefaultRules() Rules {
	return Rules{
		MinBet:        MinBet,
		MinReputation: -10,
		LogLimit:      LogLimit,
		Defaults: State{
			Money:      1000,
			Energy:     50,
			Reputation: 10,
			Debt:       0,
			Bet:        100,
		},
		Reward: RewardRules{
			GuaranteedShare:   0.6,
			ReputationDivisor: 300,
			RandomShare:       0.3,
			BonusThreshold:    70,
			BonusShare:        0.2,
		},
		Casino: CasinoRules{
			WinChance:          0.5,
			WinMultiplierBase:  1.5,
			WinMultiplierRange: 3,
			LossEnergyBonus:    5,
		},
		Job:    Gig{EnergyCost: 10, Base: 400, Reputation: 1},
		Shady:  Gig{EnergyCost: 10, Base: 2000, Reputation: -3},
		Borrow: Gig{EnergyCost: 5, Base: 500, Reputation: -1},
		Credit: CreditRules{
			EnergyCost:     15,
			Base:           1500,
			ReputationLoss: 2,
			InterestMin:    0.2,
			InterestRange:  0.1,
		},
		Help: HelpRules{EnergyCost: 5, ReputationGain: 1},
		Repay: RepayRules{
			MinAmount:          1000,
			ReputationGain:     1,
			ReputationInterval: 1000,
		},
	}
}

// Clamp enforces the state invariants.
func (r Rules) Clamp(s State) State {
	s.Money = max(0, s.Money)
	s.Energy = max(0, s.Energy)
	s.Reputation = max(r.MinReputation, s.Reputation)
	s.Debt = max(0, s.Debt)
	s.Bet = max(r.MinBet, s.Bet)
	return s
}

var ErrInvalidRules = errors.New("games: invalid rules")

// Validate rejects rule sets the engine cannot run with.
func (r Rules) Validate() error {
	var problems []string
	if r.MinBet <= 0 {
		problems = append(problems, "min_bet must be positive")
	}
	if r.LogLimit <= 0 {
		problems = append(problems, "log_limit must be positive")
	}
	if r.Reward.ReputationDivisor == 0 {
		problems = append(problems, "reward.reputation_divisor must not be zero")
	}
	if r.Casino.WinChance < 0 || r.Casino.WinChance > 1 {
		problems = append(problems, "casino.win_chance must be within [0, 1]")
	}
	costs := []struct {
		name string
		cost int
	}{
		{"job.energy_cost", r.Job.EnergyCost},
		{"shady_deal.energy_cost", r.Shady.EnergyCost},
		{"borrow.energy_cost", r.Borrow.EnergyCost},
		{"credit.energy_cost", r.Credit.EnergyCost},
		{"help.energy_cost", r.Help.EnergyCost},
	}
	for _, c := range costs {
		if c.cost < 0 {
			problems = append(problems, c.name+" must not be negative")
		}
	}
	if r.Repay.MinAmount <= 0 {
		problems = append(problems, "repay.min_amount must be positive")
	}
	if r.Repay.ReputationInterval <= 0 {
		problems = append(problems, "repay.reputation_interval must be positive")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidRules, problems)
}
