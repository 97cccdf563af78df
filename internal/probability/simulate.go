package probability

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/randutil"
)

// counts[n][k][face] is how many sampled rolls of n dice had k matches.
type counts [][][dice.NumFaces]int

func newCounts(maxDice int) counts {
	c := make(counts, maxDice+1)
	for n := range c {
		c[n] = make([][dice.NumFaces]int, n+1)
	}
	return c
}

// SimulateOptions configures a Monte Carlo table estimate.
type SimulateOptions struct {
	MaxDice int
	Samples int
	Workers int // defaults to runtime.NumCPU, capped at 8
	Seed    int64
}

// Simulate estimates the table by rolling MaxDice dice Samples times. Each
// roll contributes one observation for every prefix length, so all rows share
// the same samples. Workers use independent sources derived from Seed, so a
// seed and worker count reproduce the same table.
func Simulate(ctx context.Context, opts SimulateOptions) (*Table, error) {
	if opts.MaxDice < 1 || opts.Samples < 1 {
		return nil, fmt.Errorf("simulate: need positive max dice and samples, got %d and %d", opts.MaxDice, opts.Samples)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = min(runtime.NumCPU(), 8)
	}
	workers = min(workers, opts.Samples)

	parent := randutil.New(opts.Seed)
	results := make([]counts, workers)
	perWorker, remainder := opts.Samples/workers, opts.Samples%workers

	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		samples := perWorker
		if w < remainder {
			samples++
		}
		seed := randutil.Derive(parent)

		g.Go(func() error {
			c, err := runWorker(ctx, opts.MaxDice, samples, dice.NewRoller(randutil.New(seed)))
			if err != nil {
				return err
			}
			results[w] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := newCounts(opts.MaxDice)
	for _, c := range results {
		for n := range c {
			for k := range c[n] {
				for face := range dice.NumFaces {
					total[n][k][face] += c[n][k][face]
				}
			}
		}
	}

	t := newTable(opts.MaxDice)
	t.Samples = opts.Samples
	for face := range dice.NumFaces {
		t.Probabilities[0][0][face] = 1
	}
	for n := 1; n <= opts.MaxDice; n++ {
		for k := range total[n] {
			for face := range dice.NumFaces {
				t.Probabilities[n][k][face] = float64(total[n][k][face]) / float64(opts.Samples)
			}
		}
	}
	return t, nil
}

// checkEvery is how many samples a worker rolls between cancellation checks.
const checkEvery = 1024

func runWorker(ctx context.Context, maxDice, samples int, roller *dice.Roller) (counts, error) {
	c := newCounts(maxDice)
	var bins [dice.NumFaces]int

	for s := range samples {
		if s%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		bins = [dice.NumFaces]int{}
		for n := 1; n <= maxDice; n++ {
			bins[roller.Roll()]++
			for face := range dice.Face(dice.NumFaces) {
				k := bins[face]
				if !face.IsWild() {
					k += bins[dice.Wild]
				}
				c[n][k][face]++
			}
		}
	}
	return c, nil
}
