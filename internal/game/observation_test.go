package game

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marno1d/callmybluff/dice"
)

func TestObserveHidesUnlockedOpponentDice(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{1, 2, 0}, [][]dice.Face{
		{0, 0, 0},
		{1, 2, 3, 4},
		{wild, 1},
	})
	mustApply(t, m, BetAction(0))
	// Player 2 locks the wild, then players 0 and 1 lock some dice.
	mustApply(t, m, RerollBetAction([]bool{true, false}, 1))
	mustApply(t, m, RerollBetAction([]bool{false, true, false}, 2))
	mustApply(t, m, RerollBetAction([]bool{true, false, false, true}, 3))

	obs, err := m.Observe(2)
	require.NoError(t, err)

	assert.Equal(t, 2, obs.Player)
	assert.Equal(t, []bool{true, false}, obs.Locked)
	assert.Len(t, obs.Dice, 2)
	assert.Equal(t, []int{1, 2, 0}, obs.TurnOrder)
	assert.Equal(t, []int{3, 4, 2}, obs.DiceCounts)
	assert.Equal(t, dice.BetIndex(3), obs.CurrentBet)
	assert.True(t, obs.MyTurn())
	assert.Len(t, obs.Log, 4)

	require.Len(t, obs.Opponents, 2)
	// Opponents are listed in turn order.
	assert.Equal(t, 1, obs.Opponents[0].Player)
	assert.Equal(t, []dice.Face{1, 4}, obs.Opponents[0].Known)
	assert.Equal(t, 2, obs.Opponents[0].Unknown)
	assert.Equal(t, 0, obs.Opponents[1].Player)
	assert.Equal(t, []dice.Face{0}, obs.Opponents[1].Known)
	assert.Equal(t, 2, obs.Opponents[1].Unknown)

	assert.Equal(t, 9, obs.TotalDice())
	assert.Equal(t, 4, obs.UnknownDice())
	assert.Equal(t, []int{1}, obs.UnlockedDice())
}

func TestObserveKnownMatching(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, wild, 3}, {1, 1, wild}})
	mustApply(t, m, BetAction(0))
	mustApply(t, m, RerollBetAction([]bool{true, false, true}, 1))

	obs, err := m.Observe(0)
	require.NoError(t, err)
	// Own 1 and wild, plus the opponent's locked 1 and wild.
	assert.Equal(t, 4, obs.KnownMatching(1))
	assert.Equal(t, 2, obs.KnownMatching(wild))
	assert.Equal(t, 3, obs.KnownMatching(3))
}

func TestObserveUnknownPlayer(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1, 2}, [][]dice.Face{{1, 1, wild, 0, 0}, {1, wild}, {2}})
	mustApply(t, m, BetAction(mustEncode(t, 3, 1)))
	mustApply(t, m, CallAction())
	require.False(t, m.Live(1))

	for _, p := range []int{-1, 1, 3} {
		_, err := m.Observe(p)
		assert.ErrorIs(t, err, ErrUnknownPlayer, "player %d", p)
	}
}

func TestObservationIsACopy(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})
	obs, err := m.Observe(0)
	require.NoError(t, err)

	obs.Dice[0] = 0
	obs.TurnOrder[0] = 1
	obs.DiceCounts[0] = 9
	assert.Equal(t, []dice.Face{1, 2}, m.Dice(0))
	assert.Equal(t, []int{0, 1}, m.TurnOrder())
	assert.Equal(t, []int{2, 2}, m.DiceCounts())
}

func TestObservationFallbackIsLegal(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})

	obs, err := m.Observe(m.CurrentPlayer())
	require.NoError(t, err)
	assert.Equal(t, BetAction(0), obs.Fallback())
	require.NoError(t, m.Validate(obs.Fallback()))
	mustApply(t, m, obs.Fallback())

	obs, err = m.Observe(m.CurrentPlayer())
	require.NoError(t, err)
	assert.Equal(t, CallAction(), obs.Fallback())
	assert.NoError(t, m.Validate(obs.Fallback()))
}

func TestObservationRaises(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})
	mustApply(t, m, BetAction(dice.MaxBetIndex-2))

	obs, err := m.Observe(1)
	require.NoError(t, err)
	assert.Equal(t, []dice.BetIndex{dice.MaxBetIndex - 1, dice.MaxBetIndex}, slices.Collect(obs.Raises()))
	assert.True(t, obs.CanRaise())

	mustApply(t, m, BetAction(dice.MaxBetIndex))
	obs, err = m.Observe(0)
	require.NoError(t, err)
	assert.False(t, obs.CanRaise())
	assert.Empty(t, slices.Collect(obs.Raises()))
}
