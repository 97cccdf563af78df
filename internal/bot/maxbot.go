package bot

import (
	"context"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
)

// MaxBot bets the highest bet its expectation supports: for each face it
// adds the visible matching dice to the expected matches among the hidden
// ones, and bets the largest resulting index. When that does not raise the
// outstanding bet it calls.
type MaxBot struct {
	stateless
}

// NewMax creates a MaxBot.
func NewMax() *MaxBot {
	return &MaxBot{}
}

func (MaxBot) Decide(_ context.Context, obs game.Observation) (game.Action, error) {
	best := MaxExpectedBet(obs)
	if best > obs.CurrentBet {
		return game.BetAction(best), nil
	}
	return game.CallAction(), nil
}

// MaxExpectedBet returns the highest bet index whose quantity is at most the
// expected count of its face from obs's point of view.
func MaxExpectedBet(obs game.Observation) dice.BetIndex {
	best := dice.BetIndex(0)
	unknown := obs.UnknownDice()
	for _, face := range faces() {
		expected := expectedCount(unknown, face) + float64(obs.KnownMatching(face))
		if int(expected) < 1 {
			continue
		}
		best = max(best, encodeCapped(int(expected), face))
	}
	return best
}

var _ game.Policy = (*MaxBot)(nil)
