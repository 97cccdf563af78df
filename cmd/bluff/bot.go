package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/marno1d/callmybluff/internal/bot"
	"github.com/marno1d/callmybluff/internal/probability"
	"github.com/marno1d/callmybluff/internal/randutil"
	"github.com/marno1d/callmybluff/sdk"
)

// BotCmd connects a built-in bot to a server as a remote player
type BotCmd struct {
	Kind      string `arg:"" help:"Bot type (random, simple, max, caller, odds)"`
	Name      string `help:"Name to connect with, defaults to the bot type"`
	Server    string `default:"ws://localhost:8080/ws" help:"WebSocket server URL"`
	Seed      int64  `help:"RNG seed (0 for random)"`
	OddsTable string `type:"existingfile" help:"Probability table for the odds bot"`
}

func (c *BotCmd) Run(globals *Globals) error {
	logger := setupLogger(os.Stderr, globals.logLevel(""))

	seed := randutil.Seed(c.Seed)
	handler, err := bot.New(c.Kind, randutil.New(seed), logger)
	if err != nil {
		return err
	}
	if c.Kind == bot.NameOdds && c.OddsTable != "" {
		table, err := probability.LoadFile(c.OddsTable)
		if err != nil {
			return err
		}
		handler = bot.NewOdds(logger, table)
	}

	name := c.Name
	if name == "" {
		name = c.Kind
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	b := sdk.New(name, handler, logger)
	if err := b.Connect(ctx, c.Server); err != nil {
		return err
	}
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Printf("%s played %d matches and won %d\n", name, b.MatchesPlayed(), b.Wins())
	return nil
}
