package tui

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
)

// ErrInvalidCommand is wrapped by every error ParseCommand returns
var ErrInvalidCommand = errors.New("invalid command")

// CommandKind tells what a parsed command asks for
type CommandKind int

const (
	CommandAction CommandKind = iota
	CommandHelp
)

// Command is a parsed line of player input
type Command struct {
	Kind   CommandKind
	Action game.Action
}

// HelpLines describes the commands ParseCommand accepts
var HelpLines = []string{
	"Commands:",
	"  3x2, bet 3x2          raise to three 2s (* or 5 is the wild face)",
	"  reroll 1,3 4x2        lock dice 1 and 3, reroll the rest, raise to 4x2",
	"  call, c               call the current bet",
	"  help, ?               show this help",
	"  quit                  leave the game",
}

// ParseCommand parses input and checks the resulting action against obs, so
// a mistyped move can be corrected before it reaches the match.
func ParseCommand(input string, obs game.Observation) (Command, error) {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("%w: type a move or 'help'", ErrInvalidCommand)
	}

	var action game.Action
	switch parts[0] {
	case "help", "?", "h":
		return Command{Kind: CommandHelp}, nil

	case "call", "c":
		if len(parts) != 1 {
			return Command{}, fmt.Errorf("%w: call takes no arguments", ErrInvalidCommand)
		}
		action = game.CallAction()

	case "bet", "b":
		if len(parts) != 2 {
			return Command{}, fmt.Errorf("%w: usage: bet 3x2", ErrInvalidCommand)
		}
		index, err := parseBet(parts[1])
		if err != nil {
			return Command{}, err
		}
		action = game.BetAction(index)

	case "reroll", "r":
		if len(parts) < 3 {
			return Command{}, fmt.Errorf("%w: usage: reroll 1,3 4x2", ErrInvalidCommand)
		}
		index, err := parseBet(parts[len(parts)-1])
		if err != nil {
			return Command{}, err
		}
		lock, err := parseLock(parts[1:len(parts)-1], len(obs.Dice))
		if err != nil {
			return Command{}, err
		}
		action = game.RerollBetAction(lock, index)

	default:
		index, err := parseBet(parts[0])
		if err != nil || len(parts) != 1 {
			return Command{}, fmt.Errorf("%w: unknown command %q, type 'help'", ErrInvalidCommand, input)
		}
		action = game.BetAction(index)
	}

	if err := checkAction(obs, action); err != nil {
		return Command{}, err
	}
	return Command{Kind: CommandAction, Action: action}, nil
}

func parseBet(s string) (dice.BetIndex, error) {
	if !strings.Contains(s, "x") {
		return 0, fmt.Errorf("%w: write bets as quantity x face, like 3x2", ErrInvalidCommand)
	}
	bet, err := dice.ParseBet(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	return bet.Index(), nil
}

// parseLock turns 1-based die positions, separated by commas or spaces,
// into a lock mask over n dice.
func parseLock(fields []string, n int) ([]bool, error) {
	lock := make([]bool, n)
	for _, field := range fields {
		for _, pos := range strings.Split(field, ",") {
			if pos == "" {
				continue
			}
			i, err := strconv.Atoi(pos)
			if err != nil || i < 1 || i > n {
				return nil, fmt.Errorf("%w: no die at position %q, you have %d", ErrInvalidCommand, pos, n)
			}
			lock[i-1] = true
		}
	}
	return lock, nil
}

// checkAction mirrors the match's own validation using only what the
// player can observe.
func checkAction(obs game.Observation, a game.Action) error {
	switch a.Type {
	case game.ActionCall:
		if !obs.CanCall() {
			return fmt.Errorf("%w: there is no bet to call", ErrInvalidCommand)
		}
		return nil
	case game.ActionBet, game.ActionRerollBet:
		if a.Bet <= obs.CurrentBet {
			return fmt.Errorf("%w: %s does not raise %s", ErrInvalidCommand, a.Bet, obs.CurrentBet)
		}
		if !a.Bet.Placeable() {
			return fmt.Errorf("%w: %s is out of range", ErrInvalidCommand, a.Bet)
		}
	}
	if a.Type != game.ActionRerollBet {
		return nil
	}
	if !obs.CanCall() {
		return fmt.Errorf("%w: the opening bet cannot reroll", ErrInvalidCommand)
	}
	if !slices.Contains(a.Lock, true) {
		return fmt.Errorf("%w: lock at least one die", ErrInvalidCommand)
	}
	for i, l := range a.Lock {
		if l && i < len(obs.Locked) && obs.Locked[i] {
			return fmt.Errorf("%w: die %d is already locked", ErrInvalidCommand, i+1)
		}
	}
	return nil
}
