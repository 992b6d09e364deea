package experiments

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/avatarneil/knucklebones/agent"
	"github.com/avatarneil/knucklebones/engine"
	"github.com/avatarneil/knucklebones/experiments/metrics"
	"github.com/avatarneil/knucklebones/searcher"
)

// LadderConfig parameterizes a round-robin ladder between difficulty tiers.
type LadderConfig struct {
	Games     int      `env:"LADDER_GAMES" envDefault:"10"`
	Tiers     []string `env:"LADDER_TIERS" envSeparator:"," envDefault:"greedy,easy,medium,hard"`
	Seed      int64    `env:"LADDER_SEED" envDefault:"1"`
	OutputDir string   `env:"LADDER_OUTPUT_DIR" envDefault:"results"`
}

// RunLadder plays every ordered tier pairing for the configured number of
// games and writes game and move records as CSV. Each game is seeded from the
// ladder seed so a run is reproducible end to end.
func RunLadder(cfg LadderConfig) error {
	for _, tier := range cfg.Tiers {
		if _, ok := searcher.Profile(tier); !ok {
			return fmt.Errorf("unknown tier %q", tier)
		}
	}

	writer, err := metrics.NewWriter(cfg.OutputDir)
	if err != nil {
		return err
	}
	log.Info().Str("dir", writer.Dir()).Int("games", cfg.Games).
		Strs("tiers", cfg.Tiers).Msg("starting ladder")

	var gameRecords []metrics.GameRecord
	var moveRecords []metrics.MoveRecord
	id := 0
	for _, tier1 := range cfg.Tiers {
		for _, tier2 := range cfg.Tiers {
			if tier1 == tier2 {
				continue
			}
			for i := 0; i < cfg.Games; i++ {
				id++
				seed := cfg.Seed + int64(id)
				agent1 := newTierAgent(tier1, seed)
				agent2 := newTierAgent(tier2, seed+1)
				local := engine.NewLocal(agent1, agent2,
					engine.WithSeed(seed),
					engine.WithNames(tier1, tier2))

				winner, gameMetric, moveMetrics := local.Run()
				log.Info().Int("game", id).Str("tier1", tier1).Str("tier2", tier2).
					Str("winner", winner.String()).Msg("ladder game finished")

				gameRecords = append(gameRecords, metrics.GameRecord{ID: id, GameMetric: gameMetric})
				for _, m := range moveMetrics {
					moveRecords = append(moveRecords, metrics.MoveRecord{Game: id, MoveMetric: m})
				}
			}
		}
	}

	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return err
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return err
	}
	log.Info().Int("games", len(gameRecords)).Int("moves", len(moveRecords)).
		Str("dir", writer.Dir()).Msg("ladder complete")
	return nil
}

func newTierAgent(tier string, seed int64) agent.Agent {
	cfg, _ := searcher.Profile(tier)
	return agent.NewSearchAgent(cfg, searcher.WithRand(rand.New(rand.NewSource(seed))))
}
