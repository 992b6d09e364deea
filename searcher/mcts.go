package searcher

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/exp/rand"

	"github.com/avatarneil/knucklebones/game"
)

// AnalyzerConfig are the hyperparameters of one analysis run.
type AnalyzerConfig struct {
	Simulations    int     // playout budget per Analyze call
	Horizon        int     // rollout cutoff in placements
	CSquared       float64 // UCB1 exploration constant (squared)
	HeuristicRatio float64 // rollout mixture: 0 random, 1 heuristic
}

// Presets: a fast configuration for interactive hints and a slow one for
// offline analysis.
var (
	QuickAnalysis = AnalyzerConfig{Simulations: 500, Horizon: 24, CSquared: 2.0, HeuristicRatio: 0.5}
	DeepAnalysis  = AnalyzerConfig{Simulations: 20_000, Horizon: 64, CSquared: 2.0, HeuristicRatio: 0.8}
)

// MoveScore is one entry of a ranked analysis result.
type MoveScore struct {
	Column     int
	Value      float64 // mean playout value in [-1, 1] for the mover
	VisitShare float64 // fraction of playouts spent on this column
}

// Analyzer scores every legal move of a position by Monte Carlo tree search:
// UCB1 selection, single-column expansion, policy-guided playouts, and
// visit/value backpropagation. It is independent from the expectimax engine
// and serves hints and training, not live move selection.
//
// Die outcomes are not stored in the tree; each descent resamples rolls, so
// a column node aggregates every chance outcome reached through it.
type Analyzer struct {
	cfg    AnalyzerConfig
	rng    *rand.Rand
	policy RolloutPolicy
}

type AnalyzerOption func(*Analyzer)

func WithAnalyzerRand(rng *rand.Rand) AnalyzerOption {
	return func(a *Analyzer) {
		if rng != nil {
			a.rng = rng
		}
	}
}

func WithRolloutPolicy(policy RolloutPolicy) AnalyzerOption {
	return func(a *Analyzer) {
		if policy != nil {
			a.policy = policy
		}
	}
}

func NewAnalyzer(cfg AnalyzerConfig, options ...AnalyzerOption) *Analyzer {
	if cfg.Simulations <= 0 {
		cfg.Simulations = QuickAnalysis.Simulations
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = QuickAnalysis.Horizon
	}
	if cfg.CSquared <= 0 {
		cfg.CSquared = QuickAnalysis.CSquared
	}
	a := &Analyzer{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		policy: MixedPolicy(cfg.HeuristicRatio),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Analyze runs the configured simulation budget against a placing state and
// returns every legal column ranked by visit share.
func (a *Analyzer) Analyze(gs game.GameState) ([]MoveScore, error) {
	if gs.Phase != game.Placing {
		return nil, fmt.Errorf("%w: analysis needs a placing state", game.ErrWrongPhase)
	}
	moves := gs.LegalMoves()
	if len(moves) == 0 {
		return nil, nil
	}

	root := &node{
		column:  -1,
		player:  gs.CurrentPlayer.Opponent(),
		untried: append([]int(nil), moves...),
	}
	for i := 0; i < a.cfg.Simulations; i++ {
		a.simulate(root, gs)
	}

	totalVisits := 0
	for _, child := range root.children {
		totalVisits += child.visits
	}
	scores := make([]MoveScore, 0, len(moves))
	for _, child := range root.children {
		score := MoveScore{Column: child.column}
		if child.visits > 0 {
			score.Value = child.total / float64(child.visits)
			score.VisitShare = float64(child.visits) / float64(totalVisits)
		}
		scores = append(scores, score)
	}
	// Columns the budget never reached still appear in the ranking.
	for _, col := range root.untried {
		scores = append(scores, MoveScore{Column: col})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].VisitShare != scores[j].VisitShare {
			return scores[i].VisitShare > scores[j].VisitShare
		}
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].Column < scores[j].Column
	})
	return scores, nil
}

func (a *Analyzer) simulate(root *node, rootState game.GameState) {
	nd := root
	gs := rootState

	// Selection: descend fully expanded nodes. A selected column can be
	// unplayable under this iteration's sampled rolls; then the playout
	// simply starts from here.
	for len(nd.untried) == 0 && len(nd.children) > 0 {
		child := nd.selectChild(a.cfg.CSquared)
		next, ok := a.step(gs, child.column)
		if !ok {
			break
		}
		nd = child
		gs = next
	}

	// Expansion: open one untried column.
	if len(nd.untried) > 0 && gs.Phase == game.Placing {
		col := nd.untried[0]
		nd.untried = nd.untried[1:]
		if next, ok := a.step(gs, col); ok {
			child := &node{parent: nd, column: col, player: gs.CurrentPlayer}
			if next.Phase == game.Placing {
				child.untried = next.LegalMoves()
			}
			nd.children = append(nd.children, child)
			nd = child
			gs = next
		}
	}

	value, winner, terminal := a.rollout(gs)
	for n := nd; n != nil; n = n.parent {
		n.visits++
		n.total += reward(n.player, value, winner, terminal)
	}
}

// step applies a column and, when the game continues, samples the next roll
// so the state is ready for another placement.
func (a *Analyzer) step(gs game.GameState, col int) (game.GameState, bool) {
	next, _, err := gs.Apply(col)
	if err != nil {
		return gs, false
	}
	if next.Phase == game.Rolling {
		next, err = next.RollExact(game.DieValue(a.rng.Intn(game.MaxDie) + 1))
		if err != nil {
			return gs, false
		}
	}
	return next, true
}

// rollout plays out to a terminal state or the horizon. It returns the
// winner for terminal playouts, otherwise the player 1 score margin
// normalized to [-1, 1].
func (a *Analyzer) rollout(gs game.GameState) (float64, game.Winner, bool) {
	depth := 0
	for gs.Phase != game.Ended && depth < a.cfg.Horizon {
		if gs.Phase == game.Rolling {
			next, err := gs.RollExact(game.DieValue(a.rng.Intn(game.MaxDie) + 1))
			if err != nil {
				break
			}
			gs = next
			continue
		}
		next, _, err := gs.Apply(a.policy(a.rng, gs))
		if err != nil {
			break
		}
		gs = next
		depth++
	}
	if gs.Phase == game.Ended {
		return 0, gs.Winner, true
	}
	margin := float64(gs.PlayerGrid(game.Player1).Score() - gs.PlayerGrid(game.Player2).Score())
	value := margin / game.MaxGridScore
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	return value, game.WinnerNone, false
}

func reward(p game.Player, value float64, winner game.Winner, terminal bool) float64 {
	if terminal {
		switch winner {
		case game.WinnerDraw:
			return 0
		case game.WinnerPlayer1:
			if p == game.Player1 {
				return 1
			}
			return -1
		case game.WinnerPlayer2:
			if p == game.Player2 {
				return 1
			}
			return -1
		default:
			return 0
		}
	}
	if p == game.Player1 {
		return value
	}
	return -value
}
