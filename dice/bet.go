package dice

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// ErrOutOfRange is returned when a bet index, quantity or face falls outside
// the encodable range.
var ErrOutOfRange = errors.New("bet out of range")

// BetIndex is the ordinal encoding of a bet. Higher indices are strictly
// stronger bets; NoBet marks a round where nobody has bet yet.
type BetIndex int

const (
	// NoBet is the sentinel index before the first bet of a round.
	NoBet BetIndex = -1
	// MaxBetIndex is the highest valid bet index, inclusive: twenty dice
	// showing face 4. Once it is on the table the only legal action is Call.
	MaxBetIndex BetIndex = 109

	// bandSize is the number of indices per band: five odd-quantity faces,
	// one wild slot and five even-quantity faces.
	bandSize = 11
	wildSlot = 5
	evenBase = 6

	// Largest quantities that still encode within MaxBetIndex.
	maxWildQuantity = 10
	maxFaceQuantity = 20
)

// Valid reports whether i is NoBet or a placeable bet.
func (i BetIndex) Valid() bool {
	return i >= NoBet && i <= MaxBetIndex
}

// Placeable reports whether i is a bet a player can make.
func (i BetIndex) Placeable() bool {
	return i >= 0 && i <= MaxBetIndex
}

func (i BetIndex) String() string {
	if i == NoBet {
		return "none"
	}
	q, f, err := Decode(i)
	if err != nil {
		return "invalid(" + strconv.Itoa(int(i)) + ")"
	}
	return Bet{Quantity: q, Face: f}.String()
}

// Encode maps a (quantity, face) bet to its index.
func Encode(quantity int, face Face) (BetIndex, error) {
	if quantity < 1 {
		return NoBet, fmt.Errorf("%w: quantity %d", ErrOutOfRange, quantity)
	}
	if !face.Valid() {
		return NoBet, fmt.Errorf("%w: face %d", ErrOutOfRange, face)
	}
	limit := maxFaceQuantity
	if face.IsWild() {
		limit = maxWildQuantity
	}
	if quantity > limit {
		return NoBet, fmt.Errorf("%w: %dx%s exceeds %d dice", ErrOutOfRange, quantity, face, limit)
	}

	var group, position int
	if face.IsWild() {
		group = quantity - 1
		position = wildSlot
	} else {
		group = (quantity - 1) / 2
		position = int(face)
		if quantity%2 == 0 {
			position += evenBase
		}
	}

	index := BetIndex(group*bandSize + position)
	if index > MaxBetIndex {
		return NoBet, fmt.Errorf("%w: %dx%s encodes to %d", ErrOutOfRange, quantity, face, index)
	}
	return index, nil
}

// Decode maps an index back to its (quantity, face) bet. NoBet decodes to
// (0, 0) without error.
func Decode(index BetIndex) (int, Face, error) {
	if index == NoBet {
		return 0, 0, nil
	}
	if !index.Placeable() {
		return 0, 0, fmt.Errorf("%w: index %d", ErrOutOfRange, index)
	}

	group := int(index) / bandSize
	position := int(index) % bandSize
	switch {
	case position == wildSlot:
		return group + 1, Wild, nil
	case position < wildSlot:
		return 2*group + 1, Face(position), nil
	default:
		return 2*group + 2, Face(position - evenBase), nil
	}
}

// Bet is the logical view of a bet index.
type Bet struct {
	Quantity int
	Face     Face
}

// FromIndex builds a Bet from a placeable index.
func FromIndex(index BetIndex) (Bet, error) {
	if index == NoBet {
		return Bet{}, fmt.Errorf("%w: no bet", ErrOutOfRange)
	}
	q, f, err := Decode(index)
	if err != nil {
		return Bet{}, err
	}
	return Bet{Quantity: q, Face: f}, nil
}

// FromQuantityFace builds a Bet from a quantity and face, checking that it
// encodes to a placeable index.
func FromQuantityFace(quantity int, face Face) (Bet, error) {
	if _, err := Encode(quantity, face); err != nil {
		return Bet{}, err
	}
	return Bet{Quantity: quantity, Face: face}, nil
}

// Index returns the bet's index. The zero Bet maps to NoBet.
func (b Bet) Index() BetIndex {
	if b.Quantity == 0 {
		return NoBet
	}
	index, err := Encode(b.Quantity, b.Face)
	if err != nil {
		return NoBet
	}
	return index
}

func (b Bet) String() string {
	return fmt.Sprintf("%dx%s", b.Quantity, b.Face)
}

// ParseBet parses bets written as "3x2", "3 2" or "2x*".
func ParseBet(s string) (Bet, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	sep := strings.IndexAny(s, "x ")
	if sep <= 0 || sep == len(s)-1 {
		return Bet{}, fmt.Errorf("%w: cannot parse bet %q", ErrOutOfRange, s)
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(s[:sep]))
	if err != nil {
		return Bet{}, fmt.Errorf("%w: invalid quantity in %q", ErrOutOfRange, s)
	}
	face, err := ParseFace(s[sep+1:])
	if err != nil {
		return Bet{}, err
	}
	return FromQuantityFace(quantity, face)
}

// Raises yields every bet index strictly stronger than from, in increasing
// order, up to and including MaxBetIndex.
func Raises(from BetIndex) iter.Seq[BetIndex] {
	return func(yield func(BetIndex) bool) {
		start := max(from+1, 0)
		for i := start; i <= MaxBetIndex; i++ {
			if !yield(i) {
				return
			}
		}
	}
}
