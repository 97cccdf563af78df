package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/probability"
	"github.com/marno1d/callmybluff/internal/randutil"
)

// OddsCmd builds a probability table, exactly or by simulation
type OddsCmd struct {
	Output  string `short:"o" default:"odds.json" type:"path" help:"File to write the table to"`
	MaxDice int    `default:"30" help:"Largest number of unknown dice covered"`
	Samples int    `help:"Monte Carlo samples, zero computes the exact table"`
	Seed    int64  `help:"RNG seed for sampling (0 for random)"`
	Workers int    `help:"Sampling workers (0 for one per CPU, at most 8)"`
	Show    int    `help:"Print the chance of at least k matches among this many unknown dice"`
}

func (c *OddsCmd) Run(globals *Globals) error {
	logger := setupLogger(os.Stderr, globals.logLevel(""))
	ctx, cancel := signalContext(logger)
	defer cancel()

	var t *probability.Table
	started := time.Now()
	if c.Samples > 0 {
		seed := randutil.Seed(c.Seed)
		logger.Info("Simulating table", "max_dice", c.MaxDice, "samples", c.Samples, "seed", seed)
		var err error
		t, err = probability.Simulate(ctx, probability.SimulateOptions{
			MaxDice: c.MaxDice,
			Samples: c.Samples,
			Workers: c.Workers,
			Seed:    seed,
		})
		if err != nil {
			return err
		}
	} else {
		t = probability.Binomial(c.MaxDice)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if err := t.SaveFile(c.Output); err != nil {
		return err
	}
	logger.Info("Wrote table", "path", c.Output, "duration", time.Since(started))

	if c.Show > 0 {
		if !t.Covers(c.Show) {
			return fmt.Errorf("table covers at most %d dice, asked for %d", t.MaxDice, c.Show)
		}
		fmt.Println(atLeastTable(t, c.Show))
	}
	return nil
}

// atLeastTable renders P(at least k of n match) with a row per k and a
// column per face
func atLeastTable(t *probability.Table, n int) string {
	headers := []string{"k"}
	for face := range dice.Face(dice.NumFaces) {
		headers = append(headers, face.String())
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	for k := 0; k <= n; k++ {
		row := []string{strconv.Itoa(k)}
		for face := range dice.Face(dice.NumFaces) {
			row = append(row, fmt.Sprintf("%.3f", t.AtLeast(n, k, face)))
		}
		tbl.Row(row...)
	}
	return tbl.String()
}
