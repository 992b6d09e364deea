package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avatarneil/knucklebones/agent"
	"github.com/avatarneil/knucklebones/experiments/metrics"
	"github.com/avatarneil/knucklebones/game"
)

// Local owns the authoritative game state and alternates two agents. It
// generates every die value itself and injects it with RollExact, so a game
// replays identically from its seed; agents only ever pick columns, which
// are validated against the legal moves before being applied.
type Local struct {
	State  game.GameState
	Agents [2]agent.Agent
	Names  [2]string
	rng    *rand.Rand
}

type Option func(*Local)

// WithSeed makes the engine's die sequence reproducible.
func WithSeed(seed int64) Option {
	return func(l *Local) {
		l.rng = rand.New(rand.NewSource(seed))
	}
}

// WithNames labels the two seats in metrics output.
func WithNames(name1, name2 string) Option {
	return func(l *Local) {
		l.Names = [2]string{name1, name2}
	}
}

func NewLocal(agent1, agent2 agent.Agent, options ...Option) *Local {
	l := &Local{
		State:  game.NewGameState(),
		Agents: [2]agent.Agent{agent1, agent2},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *Local) Run() (game.Winner, metrics.GameMetric, []metrics.MoveMetric) {
	start := time.Now()
	log.Info().Str("player", l.State.CurrentPlayer.String()).Msg("game started")

	var moveMetrics []metrics.MoveMetric
	for l.State.Phase != game.Ended && len(moveMetrics) < MaxMoves {
		rolled, err := l.State.RollExact(game.DieValue(l.rng.Intn(game.MaxDie) + 1))
		if err != nil {
			panic(fmt.Sprintf("engine state corrupt: %v", err))
		}

		seat := int(rolled.CurrentPlayer) - 1
		column, searchMetric, err := l.Agents[seat].FindMove(rolled)
		legal := rolled.LegalMoves()
		if err != nil || !containsColumn(legal, column) {
			if len(legal) == 0 {
				panic("no legal moves in a non-terminal state")
			}
			log.Warn().Err(err).Int("column", column).
				Str("player", rolled.CurrentPlayer.String()).
				Msg("agent returned an unusable move, forcing first legal column")
			column = legal[0]
		}

		next, removal, err := rolled.Apply(column)
		if err != nil {
			panic(fmt.Sprintf("validated move failed to apply: %v", err))
		}
		if removal != nil {
			log.Debug().Int("column", removal.Column).Int("value", int(removal.Value)).
				Str("player", rolled.CurrentPlayer.String()).
				Msg("triple eliminated")
		}

		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         len(moveMetrics) + 1,
			Player:       rolled.CurrentPlayer.String(),
			Column:       column,
			SearchMetric: searchMetric,
		})
		l.State = next
	}

	score1 := l.State.PlayerGrid(game.Player1).Score()
	score2 := l.State.PlayerGrid(game.Player2).Score()
	gameMetric := metrics.GameMetric{
		Tier1:     l.Names[0],
		Tier2:     l.Names[1],
		Winner:    l.State.Winner.String(),
		Moves:     len(moveMetrics),
		Score1:    score1,
		Score2:    score2,
		StartTime: start,
		Duration:  time.Since(start),
	}
	log.Info().Str("winner", l.State.Winner.String()).
		Int("score1", score1).Int("score2", score2).
		Int("moves", len(moveMetrics)).
		Msg("game over")
	return l.State.Winner, gameMetric, moveMetrics
}

func containsColumn(columns []int, column int) bool {
	for _, c := range columns {
		if c == column {
			return true
		}
	}
	return false
}
