package main

import (
	"errors"
	"os"

	"github.com/marno1d/callmybluff/internal/server"
	"github.com/marno1d/callmybluff/internal/simulator"
)

// ServeCmd hosts matches between remote and built-in bots
type ServeCmd struct {
	Addr    string `help:"Listen address, overrides the config"`
	Matches int    `help:"Number of matches, overrides the config"`
	Seed    int64  `help:"RNG seed, overrides the config (0 for random)"`
	Dots    bool   `help:"Print one colored dot per finished match"`
}

func (c *ServeCmd) Run(globals *Globals) error {
	cfg, err := loadConfig(globals.Config)
	if err != nil {
		return err
	}
	logger := setupLogger(os.Stderr, globals.logLevel(cfg.Simulation.LogLevel))
	if !cfg.HasRemoteSeats() {
		return errors.New("no remote seats configured, use simulate for built-in bots")
	}

	addr := cfg.Server.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	matches := cfg.Server.Matches
	if c.Matches > 0 {
		matches = c.Matches
	}
	seed := cfg.Simulation.Seed
	if c.Seed != 0 {
		seed = c.Seed
	}

	gmConfig := server.Config{
		StartingDice:    cfg.Simulation.StartingDice,
		DecisionTimeout: cfg.Server.DecisionTimeoutDuration(),
		Seed:            seed,
	}
	if c.Dots {
		gmConfig.Monitor = server.NewDotsMonitor(os.Stderr)
	}
	for _, seat := range cfg.Seats {
		gmConfig.Seats = append(gmConfig.Seats, server.Seat{Name: seat.Name, Bot: seat.Bot, Remote: seat.Remote})
	}
	if err := gmConfig.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	srv := server.NewServer(logger)
	serveErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(ctx, addr)
		if err != nil {
			cancel()
		}
		serveErr <- err
	}()

	gm := server.NewGameManager(srv, gmConfig, logger)
	stats, runErr := gm.Run(ctx, matches)

	cancel()
	if err := <-serveErr; err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	simulator.PrintSummary(os.Stdout, stats)
	return nil
}
