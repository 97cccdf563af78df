package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/randutil"
)

func TestNewMatchTwoPlayers(t *testing.T) {
	t.Parallel()
	m, err := NewMatch(randutil.New(42), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumPlayers())
	assert.Equal(t, []int{5, 5}, m.DiceCounts())
	assert.Equal(t, dice.NoBet, m.CurrentBet())
	assert.ElementsMatch(t, []int{0, 1}, m.TurnOrder())
	assert.Equal(t, m.TurnOrder()[0], m.CurrentPlayer())
	assert.Equal(t, NoPlayer, m.PreviousPlayer())
	assert.Equal(t, AwaitingFirstBet, m.Phase())
	assert.Equal(t, 1, m.Round())
	assert.Empty(t, m.Log())
	assert.Empty(t, m.History())

	for p := range 2 {
		assert.Equal(t, []bool{false, false, false, false, false}, m.Locks(p))
		for _, f := range m.Dice(p) {
			assert.True(t, f.Valid())
		}
	}
}

func TestNewMatchIsReproducible(t *testing.T) {
	t.Parallel()
	a, err := NewMatch(randutil.New(7), 4)
	require.NoError(t, err)
	b, err := NewMatch(randutil.New(7), 4)
	require.NoError(t, err)

	assert.Equal(t, a.TurnOrder(), b.TurnOrder())
	assert.Equal(t, a.Hands(), b.Hands())
}

func TestNewMatchInvalidConfiguration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		players int
		opts    []MatchOption
	}{
		{"no players", 0, nil},
		{"one player", 1, nil},
		{"zero starting dice", 2, []MatchOption{WithStartingDice(0)}},
		{"short turn order", 3, []MatchOption{WithTurnOrder([]int{0, 1})}},
		{"duplicate in turn order", 2, []MatchOption{WithTurnOrder([]int{1, 1})}},
		{"unknown id in turn order", 2, []MatchOption{WithTurnOrder([]int{0, 2})}},
		{"hands for wrong player count", 2, []MatchOption{WithHands([][]dice.Face{{1}})}},
		{"empty hand", 2, []MatchOption{WithHands([][]dice.Face{{1}, {}})}},
		{"invalid face", 2, []MatchOption{WithHands([][]dice.Face{{1}, {9}})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatch(randutil.New(1), tt.players, tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestNewMatchRequiresRNG(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { _, _ = NewMatch(nil, 2) })
}

func TestNewMatchOptions(t *testing.T) {
	t.Parallel()
	m, err := NewMatch(randutil.New(3), 3, WithStartingDice(2), WithTurnOrder([]int{2, 0, 1}))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, m.DiceCounts())
	assert.Equal(t, []int{2, 0, 1}, m.TurnOrder())
	assert.Equal(t, 2, m.CurrentPlayer())

	m = fixedMatch(t, []int{1, 0}, [][]dice.Face{{0, 1, 2}, {dice.Wild}})
	assert.Equal(t, []dice.Face{0, 1, 2}, m.Dice(0))
	assert.Equal(t, []int{3, 1}, m.DiceCounts())
	assert.Equal(t, 4, m.TotalDice())
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})

	m.Dice(0)[0] = 4
	m.Locks(0)[0] = true
	m.TurnOrder()[0] = 1
	m.Hands()[1][0] = 0

	assert.Equal(t, []dice.Face{1, 2}, m.Dice(0))
	assert.Equal(t, []bool{false, false}, m.Locks(0))
	assert.Equal(t, []int{0, 1}, m.TurnOrder())
	assert.Equal(t, []dice.Face{3, 4}, m.Dice(1))
	assert.Nil(t, m.Dice(7))
}

func TestStringsForUnknownValues(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "match-over", MatchOver.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
	assert.Equal(t, "phase(-1)", Phase(-1).String())

	assert.Equal(t, "round-result", EntryRoundResult.String())
	assert.Equal(t, "entry(7)", EntryKind(7).String())
	assert.Equal(t, "entry(7)", LogEntry{Kind: EntryKind(7)}.String())

	assert.NotPanics(t, func() {
		assert.Equal(t, "round result missing", LogEntry{Kind: EntryRoundResult}.String())
	})
}
