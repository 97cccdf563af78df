package game

import (
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/marno1d/callmybluff/dice"
)

// DefaultStartingDice is the number of dice each player starts a match with.
const DefaultStartingDice = 5

// Phase is the position of a match in its state machine.
type Phase int

const (
	// AwaitingFirstBet: no outstanding bet; the current player must bet.
	AwaitingFirstBet Phase = iota
	// AwaitingResponse: the current player may raise, reroll and raise, or call.
	AwaitingResponse
	// RoundResolved is reported by the transition of a call. The match has
	// already moved on to the next round (or MatchOver) when it is seen.
	RoundResolved
	// MatchOver: exactly one player holds dice.
	MatchOver
)

func (p Phase) String() string {
	switch p {
	case AwaitingFirstBet:
		return "awaiting-first-bet"
	case AwaitingResponse:
		return "awaiting-response"
	case RoundResolved:
		return "round-resolved"
	case MatchOver:
		return "match-over"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type seat struct {
	dice   []dice.Face
	locked []bool
}

// Match is the complete state of one game. It is only mutated through
// Apply and is not safe for concurrent use.
type Match struct {
	roller     *dice.Roller
	numPlayers int
	seats      []seat
	turnOrder  []int
	currentBet dice.BetIndex
	current    int
	previous   int
	starter    int
	round      int
	phase      Phase
	log        []LogEntry
	history    []RoundRecord
	eliminated []int
	fault      error
}

// MatchOption configures a Match during creation.
type MatchOption func(*matchConfig)

type matchConfig struct {
	startingDice int
	turnOrder    []int
	hands        [][]dice.Face
}

// WithStartingDice sets the number of dice each player starts with.
func WithStartingDice(n int) MatchOption {
	return func(c *matchConfig) {
		c.startingDice = n
	}
}

// WithTurnOrder fixes the turn order instead of shuffling it. The first id
// in order opens the match.
func WithTurnOrder(order []int) MatchOption {
	return func(c *matchConfig) {
		c.turnOrder = slices.Clone(order)
	}
}

// WithHands sets the first round's dice, indexed by player id. Each hand's
// length becomes that player's dice count, overriding WithStartingDice.
// Later rounds are rolled as usual.
func WithHands(hands [][]dice.Face) MatchOption {
	return func(c *matchConfig) {
		c.hands = make([][]dice.Face, len(hands))
		for i, h := range hands {
			c.hands[i] = slices.Clone(h)
		}
	}
}

// NewMatch creates a match with every player holding freshly rolled dice and
// a shuffled turn order. The RNG is required so that every draw of the match
// (shuffle, initial dice, rerolls) is reproducible from its seed.
//
//	rng := randutil.New(42)
//	m, err := game.NewMatch(rng, 3)
func NewMatch(rng *rand.Rand, numPlayers int, opts ...MatchOption) (*Match, error) {
	if rng == nil {
		panic("rng is required for match creation")
	}
	if numPlayers < 2 {
		return nil, fmt.Errorf("%w: need at least 2 players, got %d", ErrInvalidConfiguration, numPlayers)
	}

	cfg := &matchConfig{startingDice: DefaultStartingDice}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.startingDice < 1 {
		return nil, fmt.Errorf("%w: starting dice must be positive, got %d", ErrInvalidConfiguration, cfg.startingDice)
	}
	if cfg.turnOrder != nil && !isPermutation(cfg.turnOrder, numPlayers) {
		return nil, fmt.Errorf("%w: turn order %v is not a permutation of %d players", ErrInvalidConfiguration, cfg.turnOrder, numPlayers)
	}
	if cfg.hands != nil {
		if len(cfg.hands) != numPlayers {
			return nil, fmt.Errorf("%w: %d hands for %d players", ErrInvalidConfiguration, len(cfg.hands), numPlayers)
		}
		for p, hand := range cfg.hands {
			if len(hand) == 0 {
				return nil, fmt.Errorf("%w: player %d has no dice", ErrInvalidConfiguration, p)
			}
			for _, f := range hand {
				if !f.Valid() {
					return nil, fmt.Errorf("%w: player %d has invalid face %d", ErrInvalidConfiguration, p, f)
				}
			}
		}
	}

	m := &Match{
		roller:     dice.NewRoller(rng),
		numPlayers: numPlayers,
		seats:      make([]seat, numPlayers),
		currentBet: dice.NoBet,
		previous:   NoPlayer,
		round:      1,
		phase:      AwaitingFirstBet,
	}

	if cfg.turnOrder != nil {
		m.turnOrder = cfg.turnOrder
	} else {
		m.turnOrder = make([]int, numPlayers)
		for i := range m.turnOrder {
			m.turnOrder[i] = i
		}
		m.roller.Shuffle(m.turnOrder)
	}

	for p := range m.seats {
		if cfg.hands != nil {
			m.seats[p].dice = cfg.hands[p]
		} else {
			m.seats[p].dice = m.roller.RollN(cfg.startingDice)
		}
		m.seats[p].locked = make([]bool, len(m.seats[p].dice))
	}

	m.current = m.turnOrder[0]
	m.starter = m.current
	return m, nil
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, id := range order {
		if id < 0 || id >= n || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

// NumPlayers returns the number of players the match started with.
func (m *Match) NumPlayers() int { return m.numPlayers }

// Round returns the 1-based number of the round in progress.
func (m *Match) Round() int { return m.round }

// Phase returns the match's current phase.
func (m *Match) Phase() Phase { return m.phase }

// CurrentBet returns the outstanding bet, or dice.NoBet.
func (m *Match) CurrentBet() dice.BetIndex { return m.currentBet }

// CurrentPlayer returns the player whose turn it is.
func (m *Match) CurrentPlayer() int { return m.current }

// PreviousPlayer returns the player who placed the outstanding bet, or
// NoPlayer.
func (m *Match) PreviousPlayer() int { return m.previous }

// RoundStarter returns the player who opened the round in progress.
func (m *Match) RoundStarter() int { return m.starter }

// TurnOrder returns a copy of the live players in turn order.
func (m *Match) TurnOrder() []int { return slices.Clone(m.turnOrder) }

// IsOver reports whether the match has a winner.
func (m *Match) IsOver() bool { return m.phase == MatchOver }

// Err returns the invariant violation that halted the match, if any.
func (m *Match) Err() error { return m.fault }

// Winner returns the last player holding dice once the match is over.
func (m *Match) Winner() (int, bool) {
	if m.phase != MatchOver {
		return NoPlayer, false
	}
	return m.turnOrder[0], true
}

// Live reports whether player still holds dice.
func (m *Match) Live(player int) bool {
	return slices.Contains(m.turnOrder, player)
}

// DiceCount returns how many dice player holds.
func (m *Match) DiceCount(player int) int {
	if player < 0 || player >= m.numPlayers {
		return 0
	}
	return len(m.seats[player].dice)
}

// DiceCounts returns every player's dice count, indexed by id.
func (m *Match) DiceCounts() []int {
	counts := make([]int, m.numPlayers)
	for p := range m.seats {
		counts[p] = len(m.seats[p].dice)
	}
	return counts
}

// TotalDice returns the number of dice in play.
func (m *Match) TotalDice() int {
	total := 0
	for p := range m.seats {
		total += len(m.seats[p].dice)
	}
	return total
}

// Dice returns a copy of player's dice.
func (m *Match) Dice(player int) []dice.Face {
	if player < 0 || player >= m.numPlayers {
		return nil
	}
	return slices.Clone(m.seats[player].dice)
}

// Hands returns a copy of every player's dice, indexed by id.
func (m *Match) Hands() [][]dice.Face {
	hands := make([][]dice.Face, m.numPlayers)
	for p := range m.seats {
		hands[p] = slices.Clone(m.seats[p].dice)
	}
	return hands
}

// Locks returns a copy of player's lock flags.
func (m *Match) Locks(player int) []bool {
	if player < 0 || player >= m.numPlayers {
		return nil
	}
	return slices.Clone(m.seats[player].locked)
}

// Log returns a copy of the current round's action log.
func (m *Match) Log() []LogEntry { return cloneEntries(m.log) }

// History returns copies of every closed round, oldest first.
func (m *Match) History() []RoundRecord {
	out := make([]RoundRecord, len(m.history))
	for i, r := range m.history {
		out[i] = r.clone()
	}
	return out
}

// Eliminated returns the players who lost all their dice, in the order they
// went out.
func (m *Match) Eliminated() []int { return slices.Clone(m.eliminated) }
