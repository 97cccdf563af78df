package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/marno1d/callmybluff/internal/game"
)

// ErrQuit is returned by Human.Decide once the player has left
var ErrQuit = errors.New("player quit")

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Human is a game.Policy that asks a player at the terminal for each move
type Human struct {
	ui     Sender
	inputs <-chan string
	logger *log.Logger
}

// NewHuman creates a policy that prompts through ui and reads moves from inputs
func NewHuman(ui Sender, inputs <-chan string, logger *log.Logger) *Human {
	return &Human{
		ui:     ui,
		inputs: inputs,
		logger: logger.WithPrefix("human"),
	}
}

// Decide prompts until the player enters a legal move
func (h *Human) Decide(ctx context.Context, obs game.Observation) (game.Action, error) {
	h.ui.Send(PromptMsg{Obs: obs})
	for {
		select {
		case <-ctx.Done():
			return game.Action{}, ctx.Err()
		case line, ok := <-h.inputs:
			if !ok {
				return game.Action{}, ErrQuit
			}
			cmd, err := ParseCommand(line, obs)
			if err != nil {
				h.logger.Debug("Rejected input", "input", line, "error", err)
				h.ui.Send(PromptMsg{Obs: obs, Err: err.Error()})
				continue
			}
			if cmd.Kind == CommandHelp {
				h.ui.Send(LogMsg{Lines: HelpLines})
				h.ui.Send(PromptMsg{Obs: obs})
				continue
			}
			h.logger.Debug("Player move", "action", cmd.Action)
			return cmd.Action, nil
		}
	}
}

// RoundOver is a no-op: the player reads the result in the game log.
func (h *Human) RoundOver(game.RoundRecord) {}

var _ game.Policy = (*Human)(nil)
