package main

import (
	"errors"
	"os"

	"github.com/marno1d/callmybluff/internal/probability"
	"github.com/marno1d/callmybluff/internal/simulator"
)

// SimulateCmd runs the configured bots against each other
type SimulateCmd struct {
	Matches int   `help:"Number of matches, overrides the config"`
	Seed    int64 `help:"RNG seed, overrides the config (0 for random)"`
	Workers int   `help:"Concurrent matches, overrides the config"`
}

func (c *SimulateCmd) Run(globals *Globals) error {
	cfg, err := loadConfig(globals.Config)
	if err != nil {
		return err
	}
	logger := setupLogger(os.Stderr, globals.logLevel(cfg.Simulation.LogLevel))
	if cfg.HasRemoteSeats() {
		return errors.New("remote seats are played with the serve command")
	}

	settings := cfg.Simulation
	simConfig := simulator.Config{
		Matches:         settings.Matches,
		Seed:            settings.Seed,
		Workers:         settings.Workers,
		StartingDice:    settings.StartingDice,
		DecisionTimeout: settings.DecisionTimeoutDuration(),
		Timeout:         settings.MatchTimeoutDuration(),
		Logger:          logger,
	}
	if c.Matches > 0 {
		simConfig.Matches = c.Matches
	}
	if c.Seed != 0 {
		simConfig.Seed = c.Seed
	}
	if c.Workers > 0 {
		simConfig.Workers = c.Workers
	}
	for _, seat := range cfg.Seats {
		simConfig.Seats = append(simConfig.Seats, simulator.Seat{Name: seat.Name, Bot: seat.Bot})
	}
	if settings.OddsTable != "" {
		table, err := probability.LoadFile(settings.OddsTable)
		if err != nil {
			return err
		}
		simConfig.Table = table
		logger.Info("Loaded odds table", "path", settings.OddsTable)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	stats, err := simulator.New(simConfig).Run(ctx)
	if err != nil {
		return err
	}
	simulator.PrintSummary(os.Stdout, stats)
	return nil
}
