package bot

import (
	"context"
	rand "math/rand/v2"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
)

// maxRandomStep bounds how far a random raise jumps over the current bet.
const maxRandomStep = 4

// RandBot picks uniformly among the legal action types, raising by a small
// random step and locking a random subset of its unlocked dice on rerolls.
type RandBot struct {
	stateless
	rng *rand.Rand
}

// NewRandom creates a RandBot drawing from rng.
func NewRandom(rng *rand.Rand) *RandBot {
	return &RandBot{rng: rng}
}

func (r *RandBot) Decide(_ context.Context, obs game.Observation) (game.Action, error) {
	if !obs.CanCall() {
		return game.BetAction(dice.BetIndex(r.rng.IntN(2 * maxRandomStep))), nil
	}
	if !obs.CanRaise() {
		return game.CallAction(), nil
	}

	types := []game.ActionType{game.ActionBet, game.ActionCall}
	if len(obs.UnlockedDice()) > 0 {
		types = append(types, game.ActionRerollBet)
	}

	next := min(obs.CurrentBet+1+dice.BetIndex(r.rng.IntN(maxRandomStep)), dice.MaxBetIndex)
	switch types[r.rng.IntN(len(types))] {
	case game.ActionCall:
		return game.CallAction(), nil
	case game.ActionRerollBet:
		return game.RerollBetAction(r.randomLock(obs), next), nil
	}
	return game.BetAction(next), nil
}

// randomLock locks each unlocked die with probability one half, and at least
// one of them.
func (r *RandBot) randomLock(obs game.Observation) []bool {
	unlocked := obs.UnlockedDice()
	lock := make([]bool, len(obs.Dice))
	lock[unlocked[r.rng.IntN(len(unlocked))]] = true
	for _, i := range unlocked {
		if r.rng.IntN(2) == 0 {
			lock[i] = true
		}
	}
	return lock
}

var _ game.Policy = (*RandBot)(nil)
