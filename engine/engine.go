package engine

import (
	"github.com/avatarneil/knucklebones/experiments/metrics"
	"github.com/avatarneil/knucklebones/game"
)

// MaxMoves guards the game loop against runaway games; real games end long
// before this.
const MaxMoves = 200

type Engine interface {
	// Run plays a game to its end and reports the winner with metrics.
	Run() (winner game.Winner, gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric)
}
