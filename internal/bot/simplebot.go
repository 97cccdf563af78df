package bot

import (
	"context"
	rand "math/rand/v2"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
)

// SimpleBot plays close to the table average. Its target bet is 80% of the
// expected count of a random normal face; it jumps to the target when that
// raises the bet, otherwise it raises by one while the expected count still
// supports the bet and calls once it does not.
type SimpleBot struct {
	stateless
	rng *rand.Rand
}

// NewSimple creates a SimpleBot drawing its target face from rng.
func NewSimple(rng *rand.Rand) *SimpleBot {
	return &SimpleBot{rng: rng}
}

func (s *SimpleBot) Decide(_ context.Context, obs game.Observation) (game.Action, error) {
	total := obs.TotalDice()
	face := dice.Face(s.rng.IntN(int(dice.Wild)))
	target := encodeCapped(int(0.8*float64(total)/3), face)

	switch {
	case !obs.CanCall():
		return game.BetAction(target), nil
	case !obs.CanRaise():
		return game.CallAction(), nil
	case target > obs.CurrentBet:
		return game.BetAction(target), nil
	}

	next := obs.CurrentBet + 1
	quantity, nextFace, err := dice.Decode(next)
	if err != nil {
		return game.Action{}, err
	}
	if expectedCount(total, nextFace) >= float64(quantity) {
		return game.BetAction(next), nil
	}
	return game.CallAction(), nil
}

// expectedCount is the expected number of n random dice that count towards
// a bet on face.
func expectedCount(n int, face dice.Face) float64 {
	if face.IsWild() {
		return float64(n) / 6
	}
	return float64(n) / 3
}

var _ game.Policy = (*SimpleBot)(nil)
