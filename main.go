package main

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avatarneil/knucklebones/experiments"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var cfg experiments.LadderConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse configuration")
	}

	if err := experiments.RunLadder(cfg); err != nil {
		log.Fatal().Err(err).Msg("ladder failed")
	}
}
