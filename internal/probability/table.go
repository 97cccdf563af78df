// Package probability tabulates how likely a number of hidden dice is to
// support a bet. Tables are indexed by the number of unknown dice, the number
// of those dice that match, and the bet face, and can be computed exactly or
// estimated by simulation.
package probability

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/fileutil"
)

// DefaultMaxDice covers six players holding five dice each.
const DefaultMaxDice = 30

// ErrMalformedTable is returned when a loaded table has the wrong shape.
var ErrMalformedTable = errors.New("malformed probability table")

// Table holds P(exactly k of n unknown dice match face) for n up to MaxDice.
type Table struct {
	MaxDice int `json:"max_dice"`
	// Samples is the number of simulated rolls behind the estimates, zero
	// for exact tables.
	Samples int `json:"samples"`
	// Probabilities is indexed [n][k][face] with 0 <= k <= n.
	Probabilities [][][dice.NumFaces]float64 `json:"probabilities"`
}

// MatchProbability is the chance that a single die counts towards a bet on
// face: its own face or a wild for normal faces, only a wild for wild bets.
func MatchProbability(face dice.Face) float64 {
	if face.IsWild() {
		return 1.0 / dice.NumFaces
	}
	return 2.0 / dice.NumFaces
}

// Binomial computes the exact table for up to maxDice unknown dice.
func Binomial(maxDice int) *Table {
	t := newTable(maxDice)
	for face := range dice.Face(dice.NumFaces) {
		p := MatchProbability(face)
		t.Probabilities[0][0][face] = 1
		for n := 1; n <= maxDice; n++ {
			prev, row := t.Probabilities[n-1], t.Probabilities[n]
			for k := 0; k <= n; k++ {
				var v float64
				if k < n {
					v += prev[k][face] * (1 - p)
				}
				if k > 0 {
					v += prev[k-1][face] * p
				}
				row[k][face] = v
			}
		}
	}
	return t
}

func newTable(maxDice int) *Table {
	maxDice = max(maxDice, 0)
	t := &Table{MaxDice: maxDice, Probabilities: make([][][dice.NumFaces]float64, maxDice+1)}
	for n := range t.Probabilities {
		t.Probabilities[n] = make([][dice.NumFaces]float64, n+1)
	}
	return t
}

// Covers reports whether the table has rows for n unknown dice.
func (t *Table) Covers(n int) bool {
	return n >= 0 && n <= t.MaxDice
}

// Exact returns P(exactly k of n unknown dice match face). It is zero outside
// the table.
func (t *Table) Exact(n, k int, face dice.Face) float64 {
	if !t.Covers(n) || k < 0 || k > n || !face.Valid() {
		return 0
	}
	return t.Probabilities[n][k][face]
}

// AtLeast returns P(at least k of n unknown dice match face).
func (t *Table) AtLeast(n, k int, face dice.Face) float64 {
	if k <= 0 {
		return 1
	}
	var p float64
	for j := k; j <= n; j++ {
		p += t.Exact(n, j, face)
	}
	return min(p, 1)
}

// Expected returns the expected number of matching dice among n unknown.
func (t *Table) Expected(n int, face dice.Face) float64 {
	var e float64
	for k := 0; k <= n; k++ {
		e += float64(k) * t.Exact(n, k, face)
	}
	return e
}

// CallerLoss returns the expected number of dice the caller loses when
// calling a bet that still needs need matches among n unknown dice.
func (t *Table) CallerLoss(n, need int, face dice.Face) float64 {
	return t.expectedLoss(n, need, face, callerLoss)
}

// BettorLoss returns the expected number of dice the bettor loses if a bet
// needing need matches among n unknown dice is called.
func (t *Table) BettorLoss(n, need int, face dice.Face) float64 {
	return t.expectedLoss(n, need, face, bettorLoss)
}

func (t *Table) expectedLoss(n, need int, face dice.Face, loss func(diff int) int) float64 {
	var e float64
	for k := 0; k <= n; k++ {
		e += float64(loss(k-need)) * t.Exact(n, k, face)
	}
	return e
}

// callerLoss is the caller's penalty for a call where the true count exceeds
// the bet by diff. An exact bet costs the caller one die.
func callerLoss(diff int) int {
	switch {
	case diff > 0:
		return diff
	case diff == 0:
		return 1
	}
	return 0
}

func bettorLoss(diff int) int {
	if diff < 0 {
		return -diff
	}
	return 0
}

// Validate checks the table's shape and that every distribution sums to one.
func (t *Table) Validate() error {
	if t.MaxDice < 0 || len(t.Probabilities) != t.MaxDice+1 {
		return fmt.Errorf("%w: %d rows for max dice %d", ErrMalformedTable, len(t.Probabilities), t.MaxDice)
	}
	for n, row := range t.Probabilities {
		if len(row) != n+1 {
			return fmt.Errorf("%w: row %d has %d entries", ErrMalformedTable, n, len(row))
		}
		for face := range dice.NumFaces {
			var sum float64
			for k := range row {
				p := row[k][face]
				if p < 0 || p > 1 || math.IsNaN(p) {
					return fmt.Errorf("%w: P(n=%d,k=%d,face=%d)=%v", ErrMalformedTable, n, k, face, p)
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-6 {
				return fmt.Errorf("%w: row %d face %d sums to %v", ErrMalformedTable, n, face, sum)
			}
		}
	}
	return nil
}

// Save writes the table as JSON.
func (t *Table) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(t)
}

// Load reads and validates a table written by Save.
func Load(r io.Reader) (*Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode probability table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveFile writes the table to path, replacing any existing file atomically.
func (t *Table) SaveFile(path string) error {
	if err := fileutil.WriteAtomic(path, 0o644, t.Save); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open probability table: %w", err)
	}
	defer f.Close()
	return Load(f)
}
