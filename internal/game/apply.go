package game

import (
	"slices"

	"github.com/marno1d/callmybluff/dice"
)

// Transition reports what a successful Apply did. Entries are the log
// entries appended by the action; after a call they end with the round
// result and Round holds the closed round.
type Transition struct {
	Player  int
	Entries []LogEntry
	Phase   Phase
	Round   *RoundRecord
}

// RoundOver reports whether the action closed a round.
func (t Transition) RoundOver() bool { return t.Round != nil }

// MatchOver reports whether the action ended the match.
func (t Transition) MatchOver() bool { return t.Phase == MatchOver }

// LegalActions returns the action types the current player may submit.
func (m *Match) LegalActions() []ActionType {
	switch {
	case m.phase == MatchOver || m.fault != nil:
		return nil
	case m.currentBet == dice.NoBet:
		return []ActionType{ActionBet}
	case m.currentBet >= dice.MaxBetIndex:
		return []ActionType{ActionCall}
	case !slices.Contains(m.seats[m.current].locked, false):
		// Every die is locked, so there is nothing left to lock.
		return []ActionType{ActionBet, ActionCall}
	}
	return []ActionType{ActionBet, ActionRerollBet, ActionCall}
}

// Validate checks a without changing the match.
func (m *Match) Validate(a Action) error {
	if m.fault != nil {
		return m.fault
	}
	player := m.current
	if m.phase == MatchOver {
		return illegal(player, a.Type, ReasonMatchOver, "match is over")
	}

	switch a.Type {
	case ActionCall:
		if m.currentBet == dice.NoBet {
			return illegal(player, a.Type, ReasonNoOutstandingBet, "nothing to call")
		}
		return nil

	case ActionBet, ActionRerollBet:
		if a.Type == ActionRerollBet && m.currentBet == dice.NoBet {
			return illegal(player, a.Type, ReasonNoOutstandingBet, "the opening bet cannot reroll")
		}
		if a.Bet <= m.currentBet {
			return illegal(player, a.Type, ReasonNonIncreasingBet, "%d does not raise %d", a.Bet, m.currentBet)
		}
		if !a.Bet.Placeable() {
			return illegal(player, a.Type, ReasonBetOutOfRange, "%d outside [0,%d]", a.Bet, dice.MaxBetIndex)
		}
		if a.Type == ActionRerollBet {
			return m.validateLock(player, a.Lock)
		}
		return nil
	}

	return illegal(player, a.Type, ReasonUnknownAction, "")
}

func (m *Match) validateLock(player int, lock []bool) error {
	s := &m.seats[player]
	if len(lock) != len(s.dice) {
		return illegal(player, ActionRerollBet, ReasonMalformedLockMask, "mask has %d entries for %d dice", len(lock), len(s.dice))
	}
	newly := 0
	for i, l := range lock {
		if !l {
			continue
		}
		if s.locked[i] {
			return illegal(player, ActionRerollBet, ReasonRelockingLockedDie, "die %d is already locked", i)
		}
		newly++
	}
	if newly == 0 {
		return illegal(player, ActionRerollBet, ReasonZeroDiceLocked, "")
	}
	return nil
}

// Apply validates a and, if it is legal, applies it for the current player.
// A rejected action returns an error wrapping ErrIllegalAction and leaves
// the match untouched.
func (m *Match) Apply(a Action) (Transition, error) {
	if err := m.Validate(a); err != nil {
		return Transition{}, err
	}

	actor := m.current
	tr := Transition{Player: actor}

	switch a.Type {
	case ActionBet:
		entry := LogEntry{Kind: EntryBet, Player: actor, Bet: a.Bet}
		m.log = append(m.log, entry)
		m.placeBet(a.Bet)
		tr.Entries = []LogEntry{entry.clone()}

	case ActionRerollBet:
		entry := LogEntry{Kind: EntryRerollBet, Player: actor, Bet: a.Bet, Locked: slices.Clone(a.Lock)}
		m.log = append(m.log, entry)
		m.reroll(actor, a.Lock)
		m.placeBet(a.Bet)
		tr.Entries = []LogEntry{entry.clone()}

	case ActionCall:
		record, err := m.call(actor)
		if err != nil {
			m.fault = err
			return Transition{}, err
		}
		tr.Entries = cloneEntries(record.Log[len(record.Log)-2:])
		rc := record.clone()
		tr.Round = &rc
	}

	if err := m.checkInvariants(); err != nil {
		m.fault = err
		return Transition{}, err
	}

	tr.Phase = m.phase
	if tr.Round != nil && m.phase != MatchOver {
		tr.Phase = RoundResolved
	}
	return tr, nil
}

func (m *Match) placeBet(index dice.BetIndex) {
	m.currentBet = index
	m.previous = m.current
	m.current = m.nextAfter(m.current)
	m.phase = AwaitingResponse
}

// nextAfter returns the live player following player in turn order.
func (m *Match) nextAfter(player int) int {
	pos := slices.Index(m.turnOrder, player)
	if pos < 0 {
		return NoPlayer
	}
	return m.turnOrder[(pos+1)%len(m.turnOrder)]
}

func (m *Match) reroll(player int, lock []bool) {
	s := &m.seats[player]
	for i, l := range lock {
		switch {
		case l:
			s.locked[i] = true
		case !s.locked[i]:
			s.dice[i] = m.roller.Roll()
		}
	}
}

// call resolves the outstanding bet, closes the round and starts the next
// one unless a single player remains.
func (m *Match) call(caller int) (RoundRecord, error) {
	bettor := m.previous
	if bettor == NoPlayer {
		return RoundRecord{}, violation("call with bet %d but no bettor", m.currentBet)
	}
	quantity, face, err := dice.Decode(m.currentBet)
	if err != nil {
		return RoundRecord{}, violation("outstanding bet undecodable: %v", err)
	}

	hands := m.Hands()
	before := m.DiceCounts()
	actual := dice.CountMatching(hands, face)
	diff := actual - quantity

	m.log = append(m.log, LogEntry{Kind: EntryCall, Player: caller, Bet: m.currentBet})

	result := RoundResult{
		ActualCount: actual,
		Face:        face,
		Quantity:    quantity,
		Bet:         m.currentBet,
		Caller:      caller,
		Bettor:      bettor,
	}

	switch {
	case diff > 0:
		// Bet understated: the caller doubted a true bet.
		result.Loser = caller
		result.DiceLost = diff
		result.Removed = m.loseDice(caller, diff, &result)
	case diff < 0:
		result.Loser = bettor
		result.DiceLost = -diff
		result.Removed = m.loseDice(bettor, -diff, &result)
	default:
		result.Loser = NoLoser
		result.DiceLost = 1
		for _, p := range slices.Clone(m.turnOrder) {
			if p != bettor {
				result.Removed += m.loseDice(p, 1, &result)
			}
		}
	}

	if diff >= 0 {
		m.current = bettor
	}

	m.log = append(m.log, LogEntry{Kind: EntryRoundResult, Player: caller, Bet: result.Bet, Result: &result})
	record := RoundRecord{
		Number:     m.round,
		Starter:    m.starter,
		Hands:      hands,
		Log:        m.log,
		Result:     result,
		DiceBefore: before,
		DiceAfter:  m.DiceCounts(),
	}
	m.history = append(m.history, record)

	if len(m.turnOrder) == 1 {
		m.phase = MatchOver
		m.current = m.turnOrder[0]
		m.clearRound()
		return record, nil
	}
	if !m.Live(m.current) {
		return record, violation("next starter %d is not live", m.current)
	}
	m.newRound()
	return record, nil
}

// loseDice removes up to n dice from player and drops them from the turn
// order when none remain. It returns the number of dice removed.
func (m *Match) loseDice(player, n int, result *RoundResult) int {
	s := &m.seats[player]
	removed := min(n, len(s.dice))
	keep := len(s.dice) - removed
	s.dice = s.dice[:keep:keep]
	s.locked = s.locked[:keep:keep]
	if keep == 0 {
		m.turnOrder = slices.DeleteFunc(m.turnOrder, func(id int) bool { return id == player })
		m.eliminated = append(m.eliminated, player)
		result.Eliminated = append(result.Eliminated, player)
	}
	return removed
}

func (m *Match) clearRound() {
	m.currentBet = dice.NoBet
	m.previous = NoPlayer
	m.log = nil
	for p := range m.seats {
		m.seats[p].locked = make([]bool, len(m.seats[p].dice))
	}
}

func (m *Match) newRound() {
	m.clearRound()
	for _, p := range m.turnOrder {
		m.seats[p].dice = m.roller.RollN(len(m.seats[p].dice))
	}
	m.round++
	m.starter = m.current
	m.phase = AwaitingFirstBet
}

func (m *Match) checkInvariants() error {
	if len(m.turnOrder) == 0 {
		return violation("turn order is empty")
	}
	inOrder := make([]bool, m.numPlayers)
	for _, p := range m.turnOrder {
		if p < 0 || p >= m.numPlayers || inOrder[p] {
			return violation("turn order %v is corrupt", m.turnOrder)
		}
		inOrder[p] = true
	}
	for p, s := range m.seats {
		if len(s.dice) != len(s.locked) {
			return violation("player %d has %d dice but %d lock flags", p, len(s.dice), len(s.locked))
		}
		if (len(s.dice) > 0) != inOrder[p] {
			return violation("player %d holds %d dice but turn order is %v", p, len(s.dice), m.turnOrder)
		}
	}
	if !m.currentBet.Valid() {
		return violation("bet index %d out of range", m.currentBet)
	}
	if m.current < 0 || m.current >= m.numPlayers || !inOrder[m.current] {
		return violation("current player %d is not live", m.current)
	}
	if (m.phase == MatchOver) != (len(m.turnOrder) == 1) {
		return violation("phase %s with %d live players", m.phase, len(m.turnOrder))
	}
	return nil
}
