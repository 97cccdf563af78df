package bot

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
	"github.com/marno1d/callmybluff/internal/randutil"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func mustEncode(t *testing.T, quantity int, face dice.Face) dice.BetIndex {
	t.Helper()
	index, err := dice.Encode(quantity, face)
	require.NoError(t, err)
	return index
}

// observe builds a two-player match with known hands, applies setup and
// returns the current player's observation.
func observe(t *testing.T, hands [][]dice.Face, setup ...game.Action) game.Observation {
	t.Helper()
	order := make([]int, len(hands))
	for i := range order {
		order[i] = i
	}
	m, err := game.NewMatch(randutil.New(1), len(hands), game.WithTurnOrder(order), game.WithHands(hands))
	require.NoError(t, err)
	for _, a := range setup {
		_, err := m.Apply(a)
		require.NoError(t, err)
	}
	obs, err := m.Observe(m.CurrentPlayer())
	require.NoError(t, err)
	return obs
}

func decide(t *testing.T, p game.Policy, obs game.Observation) game.Action {
	t.Helper()
	a, err := p.Decide(context.Background(), obs)
	require.NoError(t, err)
	return a
}

func TestNewKnowsEveryName(t *testing.T) {
	t.Parallel()
	for _, name := range Names() {
		p, err := New(name, randutil.New(1), testLogger())
		require.NoError(t, err, name)
		assert.NotNil(t, p)
	}

	_, err := New("telepath", randutil.New(1), testLogger())
	assert.ErrorIs(t, err, ErrUnknownBot)
	assert.Panics(t, func() { _, _ = New(NameRandom, nil, testLogger()) })
}

// TestBotsOnlyPlayLegalActions plays full matches between every bot and
// requires that the engine never had to reject or replace an action.
func TestBotsOnlyPlayLegalActions(t *testing.T) {
	t.Parallel()
	for seed := int64(1); seed <= 10; seed++ {
		names := Names()
		rng := randutil.New(seed)
		policies := make([]game.Policy, len(names))
		for i, name := range names {
			p, err := New(name, randutil.New(randutil.Derive(rng)), testLogger())
			require.NoError(t, err)
			policies[i] = p
		}

		m, err := game.NewMatch(randutil.New(seed), len(policies))
		require.NoError(t, err)
		engine, err := game.NewEngine(m, policies, testLogger(), game.WithIllegalActionLimit(1))
		require.NoError(t, err)

		result, err := engine.Play(context.Background())
		require.NoError(t, err)
		assert.Equal(t, make([]int, len(names)), result.IllegalActions, "seed %d", seed)
		assert.Equal(t, make([]int, len(names)), result.Fallbacks, "seed %d", seed)
	}
}

func TestCallBot(t *testing.T) {
	t.Parallel()
	hands := [][]dice.Face{{1, 2}, {3, 4}}
	bot := NewCaller()

	assert.Equal(t, game.BetAction(0), decide(t, bot, observe(t, hands)))
	assert.Equal(t, game.CallAction(), decide(t, bot, observe(t, hands, game.BetAction(40))))
}

func TestMaxBot(t *testing.T) {
	t.Parallel()
	hands := [][]dice.Face{{1, 1, 1, dice.Wild, 0}, {0, 0, 0, 0, 0}}
	obs := observe(t, hands)

	// Five hidden dice: face 1 expects 5/3 + 4 visible, so 5x1 is the top bet.
	assert.Equal(t, mustEncode(t, 5, 1), MaxExpectedBet(obs))
	assert.Equal(t, game.BetAction(mustEncode(t, 5, 1)), decide(t, NewMax(), obs))

	obs = observe(t, hands, game.BetAction(mustEncode(t, 6, 1)), game.BetAction(mustEncode(t, 6, 2)))
	assert.Equal(t, game.CallAction(), decide(t, NewMax(), obs))
}

func TestSimpleBot(t *testing.T) {
	t.Parallel()
	hands := [][]dice.Face{{1, 2, 3, 4, 0}, {0, 1, 2, 3, 4}}
	bot := NewSimple(randutil.New(3))

	// Ten dice: the target quantity is int(0.8*10/3) = 2 of a normal face.
	open := decide(t, bot, observe(t, hands))
	require.Equal(t, game.ActionBet, open.Type)
	quantity, face, err := dice.Decode(open.Bet)
	require.NoError(t, err)
	assert.Equal(t, 2, quantity)
	assert.False(t, face.IsWild())

	high := observe(t, hands, game.BetAction(mustEncode(t, 10, 0)))
	assert.Equal(t, game.CallAction(), decide(t, bot, high))

	top := observe(t, hands, game.BetAction(dice.MaxBetIndex))
	assert.Equal(t, game.CallAction(), decide(t, bot, top))

	// 1x0 is under the target, so the bot jumps to its target.
	low := observe(t, hands, game.BetAction(0))
	a := decide(t, bot, low)
	assert.Equal(t, game.ActionBet, a.Type)
	assert.Greater(t, a.Bet, dice.BetIndex(0))
}

func TestRandBotRespectsLegality(t *testing.T) {
	t.Parallel()
	hands := [][]dice.Face{{1, 2}, {3, 4}}
	bot := NewRandom(randutil.New(5))

	for range 100 {
		a := decide(t, bot, observe(t, hands))
		assert.Equal(t, game.ActionBet, a.Type)
		assert.True(t, a.Bet.Placeable())
	}
	top := observe(t, hands, game.BetAction(dice.MaxBetIndex))
	assert.Equal(t, game.CallAction(), decide(t, bot, top))

	seen := make(map[game.ActionType]bool)
	obs := observe(t, hands, game.BetAction(3))
	for range 200 {
		a := decide(t, bot, obs)
		seen[a.Type] = true
		if a.Type == game.ActionRerollBet {
			assert.Len(t, a.Lock, 2)
			assert.Contains(t, a.Lock, true)
		}
		if a.Type != game.ActionCall {
			assert.Greater(t, a.Bet, dice.BetIndex(3))
		}
	}
	assert.Len(t, seen, 3, "every action type is eventually chosen")
}
