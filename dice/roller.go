package dice

import (
	rand "math/rand/v2"
)

// Roller draws die faces and permutations from a single random source.
// It is not safe for concurrent use; each match owns its own Roller.
type Roller struct {
	rng *rand.Rand
}

// NewRoller creates a roller with an explicit RNG.
func NewRoller(rng *rand.Rand) *Roller {
	if rng == nil {
		panic("dice: rng is required")
	}
	return &Roller{rng: rng}
}

// Roll draws a single uniform face in [0,5].
func (r *Roller) Roll() Face {
	return Face(r.rng.IntN(NumFaces))
}

// RollN draws n uniform faces.
func (r *Roller) RollN(n int) []Face {
	faces := make([]Face, n)
	for i := range faces {
		faces[i] = r.Roll()
	}
	return faces
}

// Shuffle permutes ids in place using Fisher-Yates.
func (r *Roller) Shuffle(ids []int) {
	for i := len(ids) - 1; i > 0; i-- {
		j := r.rng.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// IntN exposes the underlying source for callers that share the roller's
// randomness, such as bots seeded from the same match.
func (r *Roller) IntN(n int) int {
	return r.rng.IntN(n)
}
