package bot

import (
	"context"

	"github.com/marno1d/callmybluff/internal/game"
)

// CallBot opens with the lowest bet and calls anything else.
type CallBot struct {
	stateless
}

// NewCaller creates a CallBot.
func NewCaller() *CallBot {
	return &CallBot{}
}

func (CallBot) Decide(_ context.Context, obs game.Observation) (game.Action, error) {
	if obs.CanCall() {
		return game.CallAction(), nil
	}
	return game.BetAction(0), nil
}

var _ game.Policy = (*CallBot)(nil)
