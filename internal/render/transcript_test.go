package render

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
	"github.com/marno1d/callmybluff/internal/randutil"
)

// playShortMatch plays one round: alice bets 1x2 holding [1 1 *], bob calls
// holding [2] and is knocked out.
func playShortMatch(t *testing.T, sub game.EventSubscriber) *game.Match {
	t.Helper()
	m, err := game.NewMatch(randutil.New(1), 2,
		game.WithTurnOrder([]int{0, 1}),
		game.WithHands([][]dice.Face{{1, 1, dice.Wild}, {2}}))
	require.NoError(t, err)

	bet, err := dice.Encode(1, 2)
	require.NoError(t, err)
	policy := game.PolicyFunc(func(_ context.Context, obs game.Observation) (game.Action, error) {
		if obs.CanCall() {
			return game.CallAction(), nil
		}
		return game.BetAction(bet), nil
	})

	engine, err := game.NewEngine(m, []game.Policy{policy, policy}, log.New(io.Discard))
	require.NoError(t, err)
	engine.GetEventBus().Subscribe(sub)
	_, err = engine.Play(context.Background())
	require.NoError(t, err)
	return m
}

func TestTranscriptAllHands(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf, []string{"alice", "bob"}, WithColorProfile(termenv.Ascii))
	playShortMatch(t, tr)
	require.NoError(t, tr.Err())

	want := []string{
		"",
		" Round 1 ",
		"alice starts, 4 dice in play",
		"  alice: [1 1 *]",
		"  bob: [2]",
		"alice bets 1x2",
		"bob calls 1x2",
		"There are actually 2 x 2. bob loses 1 die.",
		"bob is out of dice.",
		"alice wins after 1 round!",
	}
	assert.Equal(t, strings.Join(want, "\n")+"\n", buf.String())
}

func TestTranscriptHidesOtherHands(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf, []string{"alice", "bob"}, WithViewer(0), WithColorProfile(termenv.Ascii))
	playShortMatch(t, tr)

	out := buf.String()
	assert.Contains(t, out, "  alice: [1 1 *]\n")
	assert.Contains(t, out, "  bob: 1 die\n")
	assert.NotContains(t, out, "  bob: [2]")
	assert.Contains(t, out, "  bob had [2]\n", "hands are revealed at the call")
	assert.NotContains(t, out, "alice had")
}

func TestTranscriptColor(t *testing.T) {
	var plain, styled bytes.Buffer
	playShortMatch(t, New(&plain, nil, WithColorProfile(termenv.Ascii)))
	playShortMatch(t, New(&styled, nil, WithColorProfile(termenv.TrueColor)))

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, styled.String(), "\x1b[")
	assert.Contains(t, plain.String(), "player 0 bets 1x2")
}

func TestWriteRound(t *testing.T) {
	m := playShortMatch(t, New(io.Discard, nil))
	history := m.History()
	require.Len(t, history, 1)

	var buf bytes.Buffer
	tr := New(&buf, []string{"alice", "bob"}, WithColorProfile(termenv.Ascii))
	tr.WriteRound(history[0])

	want := []string{
		" Round 1 ",
		"  alice: [1 1 *]",
		"  bob: [2]",
		"alice bets 1x2",
		"bob calls 1x2",
		"There are actually 2 x 2. bob loses 1 die.",
		"bob is out of dice.",
	}
	assert.Equal(t, strings.Join(want, "\n")+"\n", buf.String())
}

func TestFormatEntry(t *testing.T) {
	tr := New(io.Discard, []string{"alice", "", "carol"})
	bet, err := dice.Encode(4, dice.Wild)
	require.NoError(t, err)

	tests := []struct {
		entry game.LogEntry
		want  string
	}{
		{game.LogEntry{Kind: game.EntryBet, Player: 0, Bet: bet}, "alice bets 4x*"},
		{game.LogEntry{Kind: game.EntryRerollBet, Player: 1, Bet: bet, Locked: []bool{true, false, true}}, "player 1 locks 2, rerolls the rest and bets 4x*"},
		{game.LogEntry{Kind: game.EntryCall, Player: 2, Bet: bet}, "carol calls 4x*"},
		{game.LogEntry{Kind: game.EntryRoundResult, Result: &game.RoundResult{
			Loser: game.NoLoser, Bettor: 0, ActualCount: 4, Face: dice.Wild, DiceLost: 1,
		}}, "There are actually 4 x *. Exact! Everyone but alice loses a die."},
		{game.LogEntry{Kind: game.EntryRoundResult, Result: &game.RoundResult{
			Loser: 2, ActualCount: 1, Face: 3, DiceLost: 3,
		}}, "There are actually 1 x 3. carol loses 3 dice."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tr.FormatEntry(tt.entry))
	}
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, io.ErrClosedPipe
}

func TestTranscriptStopsAfterWriteError(t *testing.T) {
	w := &failingWriter{}
	tr := New(w, nil, WithColorProfile(termenv.Ascii))
	playShortMatch(t, tr)
	assert.ErrorIs(t, tr.Err(), io.ErrClosedPipe)
	assert.Equal(t, 1, w.writes)
}
