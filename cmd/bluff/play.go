package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marno1d/callmybluff/internal/bot"
	"github.com/marno1d/callmybluff/internal/config"
	"github.com/marno1d/callmybluff/internal/game"
	"github.com/marno1d/callmybluff/internal/probability"
	"github.com/marno1d/callmybluff/internal/randutil"
	"github.com/marno1d/callmybluff/internal/render"
	"github.com/marno1d/callmybluff/internal/tui"
)

// PlayCmd plays one match in the terminal
type PlayCmd struct {
	Bots    []string `arg:"" optional:"" help:"Opponents (random, simple, max, caller, odds), defaults to the configured seats"`
	Name    string   `default:"you" help:"Your name at the table"`
	Dice    int      `help:"Starting dice per player, overrides the config"`
	Seed    int64    `help:"RNG seed, overrides the config (0 for random)"`
	Watch   bool     `help:"Seat only the bots and print the match transcript"`
	LogFile string   `type:"path" help:"Write logs to this file while the terminal UI runs"`
}

// opponents returns the bot seats for the match. Bots named on the command
// line are numbered from first, otherwise the configured seats are used.
func (c *PlayCmd) opponents(cfg *config.Config, first int) ([]config.SeatConfig, error) {
	var seats []config.SeatConfig
	if len(c.Bots) > 0 {
		for i, name := range c.Bots {
			seats = append(seats, config.SeatConfig{Name: fmt.Sprintf("%s-%d", name, first+i), Bot: name})
		}
		return seats, nil
	}
	for _, seat := range cfg.Seats {
		if seat.Remote {
			return nil, fmt.Errorf("seat %s is remote, name the opponents on the command line or use serve", seat.Name)
		}
		seats = append(seats, seat)
	}
	return seats, nil
}

func (c *PlayCmd) Run(globals *Globals) error {
	cfg, err := loadConfig(globals.Config)
	if err != nil {
		return err
	}

	var logOut io.Writer = os.Stderr
	if !c.Watch {
		// The UI owns the terminal, so logs go to a file or nowhere.
		logOut = io.Discard
		if c.LogFile != "" {
			f, err := os.Create(c.LogFile)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			logOut = f
		}
	}
	logger := setupLogger(logOut, globals.logLevel(cfg.Simulation.LogLevel))
	ctx, cancel := signalContext(logger)
	defer cancel()

	seed := cfg.Simulation.Seed
	if c.Seed != 0 {
		seed = c.Seed
	}
	seed = randutil.Seed(seed)
	rng := randutil.New(seed)
	startingDice := cfg.Simulation.StartingDice
	if c.Dice > 0 {
		startingDice = c.Dice
	}

	var table *probability.Table
	if cfg.Simulation.OddsTable != "" {
		if table, err = probability.LoadFile(cfg.Simulation.OddsTable); err != nil {
			return err
		}
	}

	var names []string
	var policies []game.Policy
	if !c.Watch {
		names = append(names, c.Name)
		policies = append(policies, nil)
	}
	seats, err := c.opponents(cfg, len(names))
	if err != nil {
		return err
	}
	for _, seat := range seats {
		var p game.Policy
		if seat.Bot == bot.NameOdds && table != nil {
			p = bot.NewOdds(logger, table)
		} else if p, err = bot.New(seat.Bot, randutil.New(randutil.Derive(rng)), logger); err != nil {
			return err
		}
		names = append(names, seat.Name)
		policies = append(policies, p)
	}
	if len(policies) < 2 {
		return errors.New("a match needs at least two players")
	}

	match, err := game.NewMatch(rng, len(policies), game.WithStartingDice(startingDice))
	if err != nil {
		return err
	}
	logger.Info("Starting match", "seed", seed, "players", names)

	if c.Watch {
		engine, err := game.NewEngine(match, policies, logger)
		if err != nil {
			return err
		}
		transcript := render.New(os.Stdout, names)
		engine.GetEventBus().Subscribe(transcript)
		if _, err := engine.Play(ctx); err != nil {
			return err
		}
		fmt.Printf("Seed: %d\n", seed)
		return transcript.Err()
	}

	session := tui.NewSession(names, 0, logger, tea.WithAltScreen())
	policies[0] = session.Policy()
	engine, err := game.NewEngine(match, policies, logger)
	if err != nil {
		return err
	}
	engine.GetEventBus().Subscribe(session.Subscriber())

	result, err := session.Run(ctx, engine.Play)
	switch {
	case errors.Is(err, tui.ErrQuit):
		fmt.Println("You left the table.")
		return nil
	case err != nil:
		return err
	}
	fmt.Printf("%s wins after %d rounds (seed %d)\n", names[result.Winner], result.Rounds, seed)
	return nil
}
