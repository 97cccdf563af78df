package game

import (
	"context"
	"io"
	rand "math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/marno1d/callmybluff/dice"
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

// fixedMatch builds a match with a known turn order and first-round hands.
func fixedMatch(t *testing.T, order []int, hands [][]dice.Face) *Match {
	t.Helper()
	m, err := NewMatch(randutil.New(1), len(hands), WithTurnOrder(order), WithHands(hands))
	require.NoError(t, err)
	return m
}

func mustApply(t *testing.T, m *Match, a Action) Transition {
	t.Helper()
	tr, err := m.Apply(a)
	require.NoError(t, err, "apply %s for player %d", a, m.CurrentPlayer())
	return tr
}

// randomAction picks uniformly among a few legal moves, calling more often as
// the bet climbs so matches terminate quickly.
func randomAction(rng *rand.Rand, obs Observation) Action {
	if obs.CanCall() && (!obs.CanRaise() || rng.IntN(3) == 0) {
		return CallAction()
	}
	next := obs.CurrentBet + 1 + dice.BetIndex(rng.IntN(4))
	next = min(next, dice.MaxBetIndex)

	unlocked := obs.UnlockedDice()
	if obs.CanCall() && len(unlocked) > 0 && rng.IntN(2) == 0 {
		lock := make([]bool, len(obs.Dice))
		lock[unlocked[rng.IntN(len(unlocked))]] = true
		return RerollBetAction(lock, next)
	}
	return BetAction(next)
}

type randomPolicy struct {
	rng    *rand.Rand
	rounds int
}

func newRandomPolicy(seed int64) *randomPolicy {
	return &randomPolicy{rng: randutil.New(seed)}
}

func (p *randomPolicy) Decide(_ context.Context, obs Observation) (Action, error) {
	return randomAction(p.rng, obs), nil
}

func (p *randomPolicy) RoundOver(RoundRecord) { p.rounds++ }

func totalOf(counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
