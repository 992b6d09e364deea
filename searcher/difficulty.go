package searcher

import (
	"time"

	"github.com/avatarneil/knucklebones/game"
)

// Config bundles the search parameters of one AI strength tier.
type Config struct {
	SearchDepth    int           // 0 disables search (pure greedy)
	RandomMoveProb float64       // chance of playing a uniform random legal move
	OffenseWeight  float64
	DefenseWeight  float64
	Advanced       bool          // enable positional evaluation terms
	Adversarial    bool          // true worst-case opponent at MIN nodes
	TimeBudget     time.Duration // 0 means unlimited
	NodeBudget     int           // 0 means DefaultNodeBudget
	YieldEvery     int           // progressive yield chunk size, 0 means default
	YieldInterval  time.Duration // optional elapsed-time yield trigger
}

func (c Config) evalWeights() game.EvalWeights {
	return game.EvalWeights{
		Offense:  c.OffenseWeight,
		Defense:  c.DefenseWeight,
		Advanced: c.Advanced,
	}
}

// Named difficulty tiers, weakest first.
const (
	Greedy   = "greedy"
	Beginner = "beginner"
	Easy     = "easy"
	Medium   = "medium"
	Hard     = "hard"
	Expert   = "expert"
	Master   = "master"
)

// Tiers lists the named tiers in strength order.
var Tiers = []string{Greedy, Beginner, Easy, Medium, Hard, Expert, Master}

// Profiles maps tier names to search configurations. Depth and budgets grow
// strictly while randomness shrinks across the tier ordering.
var Profiles = map[string]Config{
	Greedy: {
		SearchDepth:   0,
		OffenseWeight: 1, DefenseWeight: 1,
	},
	Beginner: {
		SearchDepth:    1,
		RandomMoveProb: 0.5,
		OffenseWeight:  1, DefenseWeight: 1,
		TimeBudget:     250 * time.Millisecond,
		NodeBudget:     20_000,
	},
	Easy: {
		SearchDepth:    2,
		RandomMoveProb: 0.25,
		OffenseWeight:  1, DefenseWeight: 1,
		TimeBudget:     500 * time.Millisecond,
		NodeBudget:     50_000,
	},
	Medium: {
		SearchDepth:    3,
		RandomMoveProb: 0.1,
		OffenseWeight:  1, DefenseWeight: 1,
		Advanced:       true,
		TimeBudget:     time.Second,
		NodeBudget:     150_000,
	},
	Hard: {
		SearchDepth:    4,
		RandomMoveProb: 0.05,
		OffenseWeight:  1.1, DefenseWeight: 1,
		Advanced: true, Adversarial: true,
		TimeBudget: 2 * time.Second,
		NodeBudget: 400_000,
	},
	Expert: {
		SearchDepth:   5,
		OffenseWeight: 1.2, DefenseWeight: 1.1,
		Advanced: true, Adversarial: true,
		TimeBudget: 3 * time.Second,
		NodeBudget: 1_000_000,
	},
	Master: {
		SearchDepth:   6,
		OffenseWeight: 1.2, DefenseWeight: 1.2,
		Advanced: true, Adversarial: true,
		TimeBudget: 5 * time.Second,
		NodeBudget: 2_500_000,
	},
}

// Profile looks up a tier by name.
func Profile(name string) (Config, bool) {
	cfg, ok := Profiles[name]
	return cfg, ok
}
