package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/avatarneil/knucklebones/experiments/metrics"
	"github.com/avatarneil/knucklebones/game"
	"github.com/avatarneil/knucklebones/searcher"
)

// ErrNoMove means the position offers no legal placement.
var ErrNoMove = errors.New("no legal move available")

// Agent picks a column for a placing state.
type Agent interface {
	FindMove(gs game.GameState) (column int, metric metrics.SearchMetric, err error)
}

// SearchAgent plays with the expectimax searcher under a difficulty config.
type SearchAgent struct {
	searcher *searcher.Expectimax
}

func NewSearchAgent(cfg searcher.Config, options ...searcher.Option) *SearchAgent {
	return &SearchAgent{searcher: searcher.NewExpectimax(cfg, options...)}
}

func (a *SearchAgent) FindMove(gs game.GameState) (int, metrics.SearchMetric, error) {
	column, ok := a.searcher.FindBestMove(gs)
	if !ok {
		return -1, a.searcher.Metric(), fmt.Errorf("%w: %s phase", ErrNoMove, gs.Phase)
	}
	return column, a.searcher.Metric(), nil
}

// RandomAgent plays uniformly random legal columns; a baseline for ladder
// calibration.
type RandomAgent struct {
	rng *rand.Rand
}

func NewRandomAgent(rng *rand.Rand) *RandomAgent {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &RandomAgent{rng: rng}
}

func (a *RandomAgent) FindMove(gs game.GameState) (int, metrics.SearchMetric, error) {
	if gs.Phase != game.Placing {
		return -1, metrics.SearchMetric{}, fmt.Errorf("%w: %s phase", ErrNoMove, gs.Phase)
	}
	moves := gs.LegalMoves()
	if len(moves) == 0 {
		return -1, metrics.SearchMetric{}, ErrNoMove
	}
	return moves[a.rng.Intn(len(moves))], metrics.SearchMetric{RandomMove: true}, nil
}
