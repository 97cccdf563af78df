package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/marno1d/callmybluff/internal/bot"
	"github.com/marno1d/callmybluff/internal/game"
	"github.com/marno1d/callmybluff/internal/probability"
	"github.com/marno1d/callmybluff/internal/randutil"
	"github.com/marno1d/callmybluff/internal/statistics"
)

// Seat names a bot playing in every simulated match
type Seat struct {
	Name string
	Bot  string
}

// Config holds configuration for running simulations
type Config struct {
	Matches         int
	Seats           []Seat
	Seed            int64
	Workers         int           // concurrent matches, defaults to runtime.NumCPU
	StartingDice    int           // defaults to game.DefaultStartingDice
	DecisionTimeout time.Duration // per decision, zero for none
	Timeout         time.Duration // per match hang protection, zero for none
	Table           *probability.Table
	Logger          *log.Logger
}

// Validate checks the configuration before any match is played
func (c Config) Validate() error {
	if c.Matches < 1 {
		return fmt.Errorf("matches must be positive, got %d", c.Matches)
	}
	if len(c.Seats) < 2 {
		return fmt.Errorf("need at least 2 seats, got %d", len(c.Seats))
	}
	var errs []error
	for i, seat := range c.Seats {
		if _, err := bot.New(seat.Bot, randutil.New(0), nil); err != nil {
			errs = append(errs, fmt.Errorf("seat %d (%s): %w", i, seat.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Simulator runs batches of bot-vs-bot matches
type Simulator struct {
	config Config
	logger *log.Logger
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	if config.Workers < 1 {
		config.Workers = runtime.NumCPU()
	}
	if config.StartingDice < 1 {
		config.StartingDice = game.DefaultStartingDice
	}
	if config.Table == nil {
		config.Table = probability.Binomial(max(probability.DefaultMaxDice, len(config.Seats)*config.StartingDice))
	}
	return &Simulator{config: config, logger: config.Logger.WithPrefix("simulator")}
}

// SeatNames returns the seat names in seat order
func (s *Simulator) SeatNames() []string {
	names := make([]string, len(s.config.Seats))
	for i, seat := range s.config.Seats {
		names[i] = seat.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("%s-%d", seat.Bot, i)
		}
	}
	return names
}

// Run plays every match and returns the aggregated statistics. Match seeds
// are drawn up front from the configured seed, so results do not depend on
// the number of workers.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	seed := randutil.Seed(s.config.Seed)
	parent := randutil.New(seed)
	seeds := make([]int64, s.config.Matches)
	for i := range seeds {
		seeds[i] = randutil.Derive(parent)
	}

	s.logger.Info("Starting simulation",
		"matches", s.config.Matches,
		"seats", s.SeatNames(),
		"seed", seed,
		"workers", s.config.Workers)
	started := time.Now()

	results := make([]statistics.MatchResult, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, matchSeed := range seeds {
		g.Go(func() error {
			result, err := s.PlayMatch(ctx, matchSeed)
			if err != nil {
				return fmt.Errorf("match %d (seed %d): %w", i+1, matchSeed, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := statistics.New(s.SeatNames())
	for _, r := range results {
		stats.Add(r)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	s.logger.Info("Simulation complete", "matches", stats.Matches, "duration", time.Since(started))
	return stats, nil
}

// PlayMatch plays a single match from seed. The same seed always replays the
// same match.
func (s *Simulator) PlayMatch(ctx context.Context, seed int64) (statistics.MatchResult, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	rng := randutil.New(seed)
	policies := make([]game.Policy, len(s.config.Seats))
	for i, seat := range s.config.Seats {
		p, err := s.newPolicy(seat.Bot, randutil.New(randutil.Derive(rng)))
		if err != nil {
			return statistics.MatchResult{}, err
		}
		policies[i] = p
	}

	match, err := game.NewMatch(rng, len(policies), game.WithStartingDice(s.config.StartingDice))
	if err != nil {
		return statistics.MatchResult{}, err
	}
	engine, err := game.NewEngine(match, policies, s.logger, game.WithDecisionTimeout(s.config.DecisionTimeout))
	if err != nil {
		return statistics.MatchResult{}, err
	}

	result, err := engine.Play(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return statistics.MatchResult{}, fmt.Errorf("match timed out after %v: %w", s.config.Timeout, err)
		}
		return statistics.MatchResult{}, err
	}

	s.logger.Debug("Match complete", "seed", seed, "winner", result.Winner, "rounds", result.Rounds)
	return statistics.MatchResult{
		Seed:       seed,
		Winner:     result.Winner,
		Placements: result.Placements(),
		Rounds:     result.Rounds,
		Actions:    result.Actions,
		Fallbacks:  result.Fallbacks,
	}, nil
}

func (s *Simulator) newPolicy(name string, rng *rand.Rand) (game.Policy, error) {
	if name == bot.NameOdds {
		return bot.NewOdds(s.logger, s.config.Table), nil
	}
	return bot.New(name, rng, s.logger)
}

// PrintSummary writes a summary of simulation results
func PrintSummary(w io.Writer, stats *statistics.Statistics) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS (%d matches) ===\n", stats.Matches)
	fmt.Fprintf(w, "Rounds per match: mean %.2f, median %.1f, std dev %.2f\n",
		stats.Mean(), stats.Median(), stats.StdDev())
	fmt.Fprintf(w, "95%% CI: [%.2f, %.2f] rounds\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Fprintf(w, "\n=== SEATS ===\n")
	for i, seat := range stats.Seats {
		wlow, whigh := stats.WinRateInterval95(i)
		fmt.Fprintf(w, "%-12s wins %5d (%5.1f%%, CI %.1f-%.1f%%)  avg place %.2f  fallbacks %d\n",
			seat.Name, seat.Wins, stats.WinRate(i)*100, wlow*100, whigh*100,
			stats.AveragePlacement(i), seat.Fallbacks)
	}
}
