// Package bot provides built-in policies for seating computer players.
package bot

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
)

// Built-in bot names accepted by New.
const (
	NameRandom = "random"
	NameSimple = "simple"
	NameMax    = "max"
	NameCaller = "caller"
	NameOdds   = "odds"
)

// ErrUnknownBot is returned by New for names it does not recognise.
var ErrUnknownBot = errors.New("unknown bot")

// Names lists the built-in bots.
func Names() []string {
	return []string{NameRandom, NameSimple, NameMax, NameCaller, NameOdds}
}

// New creates the named bot. Bots that need randomness draw it from rng,
// so seeding rng reproduces their play.
func New(name string, rng *rand.Rand, logger *log.Logger) (game.Policy, error) {
	if rng == nil {
		panic("bot: rng is required")
	}
	switch name {
	case NameRandom:
		return NewRandom(rng), nil
	case NameSimple:
		return NewSimple(rng), nil
	case NameMax:
		return NewMax(), nil
	case NameCaller:
		return NewCaller(), nil
	case NameOdds:
		return NewOdds(logger, nil), nil
	}
	return nil, fmt.Errorf("%w %q, choose one of %v", ErrUnknownBot, name, Names())
}

// stateless is embedded by bots that ignore round results.
type stateless struct{}

func (stateless) RoundOver(game.RoundRecord) {}

// encodeCapped encodes quantity x face, clamping quantities past the top of
// the bet range to MaxBetIndex.
func encodeCapped(quantity int, face dice.Face) dice.BetIndex {
	quantity = max(quantity, 1)
	index, err := dice.Encode(quantity, face)
	if err != nil {
		return dice.MaxBetIndex
	}
	return index
}

// lockMatching builds a lock mask over the observer's unlocked dice that
// match face. ok is false when nothing can be locked or nothing would be
// rerolled.
func lockMatching(obs game.Observation, face dice.Face) (lock []bool, rerolled int, ok bool) {
	lock = make([]bool, len(obs.Dice))
	locked := 0
	for _, i := range obs.UnlockedDice() {
		if obs.Dice[i].Matches(face) {
			lock[i] = true
			locked++
		} else {
			rerolled++
		}
	}
	return lock, rerolled, locked > 0 && rerolled > 0
}

// faces lists every die face, wild last.
func faces() []dice.Face {
	out := make([]dice.Face, 0, dice.NumFaces)
	for f := range dice.Face(dice.NumFaces) {
		out = append(out, f)
	}
	return out
}
