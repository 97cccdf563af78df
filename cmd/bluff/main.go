package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"bluff.hcl" type:"path" help:"HCL configuration file"`
	LogLevel string `help:"Log level (debug|info|warn|error), defaults to the configured level"`
}

// logLevel returns the level from the flag, falling back to configured
func (g *Globals) logLevel(configured string) string {
	if g.LogLevel != "" {
		return g.LogLevel
	}
	if configured != "" {
		return configured
	}
	return "info"
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"withargs" help:"Play a match against bots in the terminal"`
	Simulate SimulateCmd      `cmd:"" help:"Run bot-vs-bot simulations"`
	Serve    ServeCmd         `cmd:"" help:"Host matches for remote bots"`
	Bot      BotCmd           `cmd:"" help:"Connect a built-in bot to a server"`
	Odds     OddsCmd          `cmd:"" help:"Build a probability table for the odds bot"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bluff"),
		kong.Description("Call my bluff: a liar's dice game for people and bots"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
