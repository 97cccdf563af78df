package game

import (
	"fmt"
	"slices"
	"strings"

	"github.com/marno1d/callmybluff/dice"
)

// ActionType enumerates the moves a player can submit.
type ActionType int

const (
	// ActionBet raises the outstanding bet.
	ActionBet ActionType = iota
	// ActionRerollBet locks some dice, rerolls the rest, then raises.
	ActionRerollBet
	// ActionCall challenges the outstanding bet and ends the round.
	ActionCall
)

func (t ActionType) String() string {
	switch t {
	case ActionBet:
		return "bet"
	case ActionRerollBet:
		return "reroll-bet"
	case ActionCall:
		return "call"
	}
	return fmt.Sprintf("action(%d)", int(t))
}

// Action is a candidate move for the current player. Lock is only read for
// ActionRerollBet and must cover every die the player holds; true marks a die
// to lock now.
type Action struct {
	Type ActionType
	Bet  dice.BetIndex
	Lock []bool
}

// BetAction raises to index.
func BetAction(index dice.BetIndex) Action {
	return Action{Type: ActionBet, Bet: index}
}

// RerollBetAction locks the dice marked in lock, rerolls the others and
// raises to index.
func RerollBetAction(lock []bool, index dice.BetIndex) Action {
	return Action{Type: ActionRerollBet, Bet: index, Lock: slices.Clone(lock)}
}

// CallAction calls the outstanding bet.
func CallAction() Action {
	return Action{Type: ActionCall}
}

func (a Action) String() string {
	switch a.Type {
	case ActionBet:
		return "bet " + a.Bet.String()
	case ActionRerollBet:
		var b strings.Builder
		for _, l := range a.Lock {
			if l {
				b.WriteByte('L')
			} else {
				b.WriteByte('.')
			}
		}
		return fmt.Sprintf("reroll [%s] bet %s", b.String(), a.Bet)
	case ActionCall:
		return "call"
	}
	return a.Type.String()
}
