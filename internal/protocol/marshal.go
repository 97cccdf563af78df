package protocol

import (
	"fmt"
	"slices"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
)

var (
	actionTypes = []game.ActionType{game.ActionBet, game.ActionRerollBet, game.ActionCall}
	entryKinds  = []game.EntryKind{game.EntryBet, game.EntryRerollBet, game.EntryCall, game.EntryRoundResult}
)

// FacesToInts converts dice to their wire form. Faces are sent as numbers
// 0-5 with 5 the wild face.
func FacesToInts(faces []dice.Face) []int {
	out := make([]int, len(faces))
	for i, f := range faces {
		out[i] = int(f)
	}
	return out
}

// IntsToFaces converts wire faces back to dice, rejecting invalid values.
func IntsToFaces(values []int) ([]dice.Face, error) {
	out := make([]dice.Face, len(values))
	for i, v := range values {
		if v < 0 || v >= dice.NumFaces {
			return nil, fmt.Errorf("%w: face %d", dice.ErrOutOfRange, v)
		}
		out[i] = dice.Face(v)
	}
	return out, nil
}

// ActionFromGame converts an action for sending.
func ActionFromGame(a game.Action) Action {
	return Action{Action: a.Type.String(), Bet: int(a.Bet), Lock: slices.Clone(a.Lock)}
}

// ToGame converts a received action. Unknown action names are an error;
// the legality of the move itself is left to the match.
func (a Action) ToGame() (game.Action, error) {
	for _, t := range actionTypes {
		if t.String() == a.Action {
			return game.Action{Type: t, Bet: dice.BetIndex(a.Bet), Lock: slices.Clone(a.Lock)}, nil
		}
	}
	return game.Action{}, fmt.Errorf("%w: action %q", ErrUnknownMessageType, a.Action)
}

// ResultFromGame converts a round result for sending.
func ResultFromGame(r game.RoundResult) Result {
	return Result{
		Loser:       r.Loser,
		DiceLost:    r.DiceLost,
		ActualCount: r.ActualCount,
		Face:        int(r.Face),
		Quantity:    r.Quantity,
		Bet:         int(r.Bet),
		Caller:      r.Caller,
		Bettor:      r.Bettor,
		Removed:     r.Removed,
		Eliminated:  slices.Clone(r.Eliminated),
	}
}

// ToGame converts a received round result.
func (r Result) ToGame() (game.RoundResult, error) {
	if r.Face < 0 || r.Face >= dice.NumFaces {
		return game.RoundResult{}, fmt.Errorf("%w: face %d", dice.ErrOutOfRange, r.Face)
	}
	return game.RoundResult{
		Loser:       r.Loser,
		DiceLost:    r.DiceLost,
		ActualCount: r.ActualCount,
		Face:        dice.Face(r.Face),
		Quantity:    r.Quantity,
		Bet:         dice.BetIndex(r.Bet),
		Caller:      r.Caller,
		Bettor:      r.Bettor,
		Removed:     r.Removed,
		Eliminated:  slices.Clone(r.Eliminated),
	}, nil
}

// EntryFromGame converts a log entry for sending.
func EntryFromGame(e game.LogEntry) Entry {
	out := Entry{Kind: e.Kind.String(), Player: e.Player, Bet: int(e.Bet), Locked: slices.Clone(e.Locked)}
	if e.Result != nil {
		r := ResultFromGame(*e.Result)
		out.Result = &r
	}
	return out
}

// ToGame converts a received log entry.
func (e Entry) ToGame() (game.LogEntry, error) {
	i := slices.IndexFunc(entryKinds, func(k game.EntryKind) bool { return k.String() == e.Kind })
	if i < 0 {
		return game.LogEntry{}, fmt.Errorf("%w: entry kind %q", ErrUnknownMessageType, e.Kind)
	}
	out := game.LogEntry{Kind: entryKinds[i], Player: e.Player, Bet: dice.BetIndex(e.Bet), Locked: slices.Clone(e.Locked)}
	if e.Result != nil {
		r, err := e.Result.ToGame()
		if err != nil {
			return game.LogEntry{}, err
		}
		out.Result = &r
	}
	return out, nil
}

func entriesFromGame(entries []game.LogEntry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = EntryFromGame(e)
	}
	return out
}

func entriesToGame(entries []Entry) ([]game.LogEntry, error) {
	if entries == nil {
		return nil, nil
	}
	out := make([]game.LogEntry, len(entries))
	for i, e := range entries {
		entry, err := e.ToGame()
		if err != nil {
			return nil, err
		}
		out[i] = entry
	}
	return out, nil
}

// ObservationFromGame converts an observation for sending.
func ObservationFromGame(o game.Observation) Observation {
	out := Observation{
		Player:         o.Player,
		Round:          o.Round,
		Dice:           FacesToInts(o.Dice),
		Locked:         slices.Clone(o.Locked),
		Opponents:      make([]Opponent, len(o.Opponents)),
		CurrentBet:     int(o.CurrentBet),
		CurrentPlayer:  o.CurrentPlayer,
		PreviousPlayer: o.PreviousPlayer,
		TurnOrder:      slices.Clone(o.TurnOrder),
		DiceCounts:     slices.Clone(o.DiceCounts),
		Log:            entriesFromGame(o.Log),
	}
	for i, v := range o.Opponents {
		out.Opponents[i] = Opponent{Player: v.Player, Unknown: v.Unknown, Known: FacesToInts(v.Known)}
	}
	return out
}

// ToGame converts a received observation.
func (o Observation) ToGame() (game.Observation, error) {
	hand, err := IntsToFaces(o.Dice)
	if err != nil {
		return game.Observation{}, err
	}
	if len(o.Locked) != len(hand) {
		return game.Observation{}, fmt.Errorf("%d lock flags for %d dice", len(o.Locked), len(hand))
	}
	log, err := entriesToGame(o.Log)
	if err != nil {
		return game.Observation{}, err
	}

	out := game.Observation{
		Player:         o.Player,
		Round:          o.Round,
		Dice:           hand,
		Locked:         slices.Clone(o.Locked),
		Opponents:      make([]game.OpponentView, len(o.Opponents)),
		CurrentBet:     dice.BetIndex(o.CurrentBet),
		CurrentPlayer:  o.CurrentPlayer,
		PreviousPlayer: o.PreviousPlayer,
		TurnOrder:      slices.Clone(o.TurnOrder),
		DiceCounts:     slices.Clone(o.DiceCounts),
		Log:            log,
	}
	for i, v := range o.Opponents {
		known, err := IntsToFaces(v.Known)
		if err != nil {
			return game.Observation{}, err
		}
		out.Opponents[i] = game.OpponentView{Player: v.Player, Unknown: v.Unknown, Known: known}
	}
	return out, nil
}

// RoundResultFromGame converts a closed round for broadcasting.
func RoundResultFromGame(matchID string, r game.RoundRecord) RoundResult {
	out := RoundResult{
		MatchID:    matchID,
		Round:      r.Number,
		Starter:    r.Starter,
		Hands:      make([][]int, len(r.Hands)),
		Log:        entriesFromGame(r.Log),
		Result:     ResultFromGame(r.Result),
		DiceBefore: slices.Clone(r.DiceBefore),
		DiceAfter:  slices.Clone(r.DiceAfter),
	}
	for i, h := range r.Hands {
		out.Hands[i] = FacesToInts(h)
	}
	return out
}

// ToGame converts a received round result into a round record.
func (r RoundResult) ToGame() (game.RoundRecord, error) {
	result, err := r.Result.ToGame()
	if err != nil {
		return game.RoundRecord{}, err
	}
	log, err := entriesToGame(r.Log)
	if err != nil {
		return game.RoundRecord{}, err
	}
	out := game.RoundRecord{
		Number:     r.Round,
		Starter:    r.Starter,
		Hands:      make([][]dice.Face, len(r.Hands)),
		Log:        log,
		Result:     result,
		DiceBefore: slices.Clone(r.DiceBefore),
		DiceAfter:  slices.Clone(r.DiceAfter),
	}
	for i, h := range r.Hands {
		if out.Hands[i], err = IntsToFaces(h); err != nil {
			return game.RoundRecord{}, err
		}
	}
	return out, nil
}
