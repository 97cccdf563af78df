package game

import (
	"fmt"
	"iter"
	"slices"

	"github.com/marno1d/callmybluff/dice"
)

// OpponentView is what a player can see of another live player's hand:
// locked dice are public, the rest are hidden.
type OpponentView struct {
	Player  int
	Unknown int
	Known   []dice.Face
}

// Observation is a read-only projection of a match for one player. It is a
// fresh copy, so policies may keep or modify it freely.
type Observation struct {
	Player         int
	Round          int
	Dice           []dice.Face
	Locked         []bool
	Opponents      []OpponentView
	CurrentBet     dice.BetIndex
	CurrentPlayer  int
	PreviousPlayer int
	TurnOrder      []int
	DiceCounts     []int
	Log            []LogEntry
}

// Observe returns player's view of the match.
func (m *Match) Observe(player int) (Observation, error) {
	if !m.Live(player) {
		return Observation{}, fmt.Errorf("%w: player %d is not in the match", ErrUnknownPlayer, player)
	}

	obs := Observation{
		Player:         player,
		Round:          m.round,
		Dice:           slices.Clone(m.seats[player].dice),
		Locked:         slices.Clone(m.seats[player].locked),
		CurrentBet:     m.currentBet,
		CurrentPlayer:  m.current,
		PreviousPlayer: m.previous,
		TurnOrder:      slices.Clone(m.turnOrder),
		DiceCounts:     m.DiceCounts(),
		Log:            cloneEntries(m.log),
	}

	for _, p := range m.turnOrder {
		if p == player {
			continue
		}
		view := OpponentView{Player: p, Known: []dice.Face{}}
		s := m.seats[p]
		for i, f := range s.dice {
			if s.locked[i] {
				view.Known = append(view.Known, f)
			} else {
				view.Unknown++
			}
		}
		obs.Opponents = append(obs.Opponents, view)
	}
	return obs, nil
}

// MyTurn reports whether the observing player is the one to act.
func (o Observation) MyTurn() bool {
	return o.Player == o.CurrentPlayer
}

// TotalDice returns the number of dice in play.
func (o Observation) TotalDice() int {
	total := 0
	for _, c := range o.DiceCounts {
		total += c
	}
	return total
}

// UnknownDice returns the number of dice hidden from the observer.
func (o Observation) UnknownDice() int {
	unknown := 0
	for _, v := range o.Opponents {
		unknown += v.Unknown
	}
	return unknown
}

// KnownMatching counts the visible dice (own dice and opponents' locked dice)
// that count towards a bet on face.
func (o Observation) KnownMatching(face dice.Face) int {
	hands := make([][]dice.Face, 0, len(o.Opponents)+1)
	hands = append(hands, o.Dice)
	for _, v := range o.Opponents {
		hands = append(hands, v.Known)
	}
	return dice.CountMatching(hands, face)
}

// CanCall reports whether there is an outstanding bet to call.
func (o Observation) CanCall() bool {
	return o.CurrentBet != dice.NoBet
}

// CanRaise reports whether any raise is still possible.
func (o Observation) CanRaise() bool {
	return o.CurrentBet < dice.MaxBetIndex
}

// Raises enumerates every legal raise target.
func (o Observation) Raises() iter.Seq[dice.BetIndex] {
	return dice.Raises(o.CurrentBet)
}

// UnlockedDice returns the positions of the observer's dice that may still
// be locked.
func (o Observation) UnlockedDice() []int {
	var idx []int
	for i, l := range o.Locked {
		if !l {
			idx = append(idx, i)
		}
	}
	return idx
}

// Fallback returns an action that is always legal for the observer: a call
// when there is a bet, otherwise the weakest opening bet.
func (o Observation) Fallback() Action {
	if o.CanCall() {
		return CallAction()
	}
	return BetAction(0)
}
