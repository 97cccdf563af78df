package simulator

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marno1d/callmybluff/internal/bot"
)

func testConfig(matches int, bots ...string) Config {
	seats := make([]Seat, len(bots))
	for i, b := range bots {
		seats[i] = Seat{Bot: b}
	}
	return Config{
		Matches: matches,
		Seats:   seats,
		Seed:    12345,
		Workers: 4,
		Timeout: 30 * time.Second,
		Logger:  log.NewWithOptions(io.Discard, log.Options{Level: log.WarnLevel}),
	}
}

func TestNewDefaults(t *testing.T) {
	sim := New(Config{Seats: []Seat{{Name: "a", Bot: bot.NameSimple}, {Bot: bot.NameMax}}})
	assert.Positive(t, sim.config.Workers)
	assert.Equal(t, 5, sim.config.StartingDice)
	assert.NotNil(t, sim.config.Table)
	assert.NotNil(t, sim.config.Logger)
	assert.Equal(t, []string{"a", "max-1"}, sim.SeatNames())
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, testConfig(0, bot.NameRandom, bot.NameRandom).Validate())
	assert.Error(t, testConfig(5, bot.NameRandom).Validate())

	err := testConfig(5, bot.NameRandom, "psychic").Validate()
	assert.ErrorIs(t, err, bot.ErrUnknownBot)
	assert.ErrorContains(t, err, "seat 1")

	assert.NoError(t, testConfig(5, bot.NameRandom, bot.NameOdds).Validate())
}

func TestSimulatorRun(t *testing.T) {
	sim := New(testConfig(30, bot.NameOdds, bot.NameSimple, bot.NameRandom))
	stats, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, stats.Validate())

	assert.Equal(t, 30, stats.Matches)
	totalWins := 0
	for i, seat := range stats.Seats {
		assert.Equal(t, 30, seat.Matches, "seat %d", i)
		assert.Zero(t, seat.Fallbacks, "built-in bots never need a fallback")
		totalWins += seat.Wins
	}
	assert.Equal(t, 30, totalWins)
	assert.Positive(t, stats.Mean())
}

func TestSimulatorIsDeterministic(t *testing.T) {
	cfg := testConfig(12, bot.NameRandom, bot.NameSimple, bot.NameMax)
	a, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	cfg.Workers = 1
	b, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a.Values, b.Values, "worker count does not change results")
	assert.Equal(t, a.Seats, b.Seats)
}

func TestPlayMatchReplaysFromSeed(t *testing.T) {
	sim := New(testConfig(1, bot.NameRandom, bot.NameOdds))
	a, err := sim.PlayMatch(context.Background(), 99)
	require.NoError(t, err)
	b, err := sim.PlayMatch(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a.Placements, 2)
	assert.Equal(t, a.Winner, a.Placements[0])
}

func TestSimulatorCancelled(t *testing.T) {
	sim := New(testConfig(50, bot.NameRandom, bot.NameRandom))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sim.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintSummary(t *testing.T) {
	sim := New(testConfig(5, bot.NameCaller, bot.NameMax))
	stats, err := sim.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, stats)
	out := buf.String()
	assert.Contains(t, out, "RESULTS (5 matches)")
	assert.Contains(t, out, "caller-0")
	assert.Contains(t, out, "max-1")
}
