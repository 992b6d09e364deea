package searcher

import (
	"golang.org/x/exp/rand"

	"github.com/avatarneil/knucklebones/game"
)

// RolloutPolicy picks a column for the current player during a playout. The
// caller guarantees the state is in the placing phase with at least one
// legal move.
type RolloutPolicy func(rng *rand.Rand, gs game.GameState) int

// RandomPolicy plays a uniformly random legal column.
func RandomPolicy(rng *rand.Rand, gs game.GameState) int {
	moves := gs.LegalMoves()
	return moves[rng.Intn(len(moves))]
}

// HeuristicPolicy plays the column with the best quick evaluation, lowest
// index on ties.
func HeuristicPolicy(_ *rand.Rand, gs game.GameState) int {
	moves := gs.LegalMoves()
	best := moves[0]
	bestScore := game.EvaluateMoveQuick(gs, best, gs.CurrentDie, gs.CurrentPlayer)
	for _, col := range moves[1:] {
		if score := game.EvaluateMoveQuick(gs, col, gs.CurrentDie, gs.CurrentPlayer); score > bestScore {
			bestScore = score
			best = col
		}
	}
	return best
}

// MixedPolicy follows the heuristic with probability ratio and plays randomly
// otherwise. Ratio 0 is pure random, ratio 1 pure heuristic.
func MixedPolicy(ratio float64) RolloutPolicy {
	return func(rng *rand.Rand, gs game.GameState) int {
		if ratio > 0 && rng.Float64() < ratio {
			return HeuristicPolicy(rng, gs)
		}
		return RandomPolicy(rng, gs)
	}
}
