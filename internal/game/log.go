package game

import (
	"fmt"
	"slices"

	"github.com/marno1d/callmybluff/dice"
)

// NoPlayer marks an absent player reference, such as the bettor before the
// first bet of a round.
const NoPlayer = -1

// NoLoser is the RoundResult loser on an exact call, where everyone but the
// bettor loses a die.
const NoLoser = -1

// EntryKind tags the variant held by a LogEntry.
type EntryKind int

const (
	EntryBet EntryKind = iota
	EntryRerollBet
	EntryCall
	EntryRoundResult
)

func (k EntryKind) String() string {
	switch k {
	case EntryBet:
		return "bet"
	case EntryRerollBet:
		return "reroll-bet"
	case EntryCall:
		return "call"
	case EntryRoundResult:
		return "round-result"
	}
	return fmt.Sprintf("entry(%d)", int(k))
}

// RoundResult records how a call was resolved.
type RoundResult struct {
	Loser       int // NoLoser on an exact call
	DiceLost    int // penalty per losing player
	ActualCount int
	Face        dice.Face
	Quantity    int
	Bet         dice.BetIndex
	Caller      int
	Bettor      int
	Removed     int   // dice actually removed from play
	Eliminated  []int // players who reached zero dice
}

// Diff is the actual count minus the bet quantity.
func (r RoundResult) Diff() int {
	return r.ActualCount - r.Quantity
}

// LogEntry is one immutable line of a round's action log. Only the fields
// relevant to Kind are set: Bet for bets and calls, Locked for rerolls and
// Result for round results.
type LogEntry struct {
	Kind   EntryKind
	Player int
	Bet    dice.BetIndex
	Locked []bool
	Result *RoundResult
}

func (e LogEntry) String() string {
	switch e.Kind {
	case EntryBet:
		return fmt.Sprintf("player %d bet %s", e.Player, e.Bet)
	case EntryRerollBet:
		locked := 0
		for _, l := range e.Locked {
			if l {
				locked++
			}
		}
		return fmt.Sprintf("player %d locked %d and bet %s", e.Player, locked, e.Bet)
	case EntryCall:
		return fmt.Sprintf("player %d called %s", e.Player, e.Bet)
	case EntryRoundResult:
		r := e.Result
		if r == nil {
			return "round result missing"
		}
		if r.Loser == NoLoser {
			return fmt.Sprintf("%d x %s: exact, all but player %d lose 1", r.ActualCount, r.Face, r.Bettor)
		}
		return fmt.Sprintf("%d x %s: player %d loses %d", r.ActualCount, r.Face, r.Loser, r.DiceLost)
	}
	return e.Kind.String()
}

func (e LogEntry) clone() LogEntry {
	e.Locked = slices.Clone(e.Locked)
	if e.Result != nil {
		r := *e.Result
		r.Eliminated = slices.Clone(r.Eliminated)
		e.Result = &r
	}
	return e
}

func cloneEntries(entries []LogEntry) []LogEntry {
	if entries == nil {
		return nil
	}
	out := make([]LogEntry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	return out
}

// RoundRecord is a closed round as kept in the match history. Hands are the
// dice revealed at the call, indexed by player id; players already out of
// the match have an empty hand.
type RoundRecord struct {
	Number     int
	Starter    int
	Hands      [][]dice.Face
	Log        []LogEntry
	Result     RoundResult
	DiceBefore []int
	DiceAfter  []int
}

func (r RoundRecord) clone() RoundRecord {
	hands := make([][]dice.Face, len(r.Hands))
	for i, h := range r.Hands {
		hands[i] = slices.Clone(h)
	}
	r.Hands = hands
	r.Log = cloneEntries(r.Log)
	r.Result.Eliminated = slices.Clone(r.Result.Eliminated)
	r.DiceBefore = slices.Clone(r.DiceBefore)
	r.DiceAfter = slices.Clone(r.DiceAfter)
	return r
}
