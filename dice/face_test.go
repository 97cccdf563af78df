package dice

import (
	"testing"

	rand "math/rand/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceMatches(t *testing.T) {
	t.Parallel()
	assert.True(t, Face(2).Matches(2))
	assert.True(t, Wild.Matches(2), "wild counts towards a non-wild face")
	assert.False(t, Face(3).Matches(2))
	assert.True(t, Wild.Matches(Wild))
	assert.False(t, Face(2).Matches(Wild), "plain faces never count towards a wild bet")
}

func TestCountMatching(t *testing.T) {
	t.Parallel()
	hands := [][]Face{
		{1, 1, Wild, 3, 0},
		{Wild, 2, 1},
		{},
	}
	assert.Equal(t, 5, CountMatching(hands, 1))
	assert.Equal(t, 2, CountMatching(hands, Wild))
	assert.Equal(t, 3, CountMatching(hands, 3))
	assert.Equal(t, 0, CountMatching(nil, 1))
}

func TestParseFace(t *testing.T) {
	t.Parallel()
	for f := Face(0); f < NumFaces; f++ {
		got, err := ParseFace(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFace("7")
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = ParseFace("")
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestFormatFaces(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[0 4 *]", FormatFaces([]Face{0, 4, Wild}))
	assert.Equal(t, "[]", FormatFaces(nil))
}

func TestRollerDeterministic(t *testing.T) {
	t.Parallel()
	a := NewRoller(rand.New(rand.NewPCG(1, 2)))
	b := NewRoller(rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, a.RollN(50), b.RollN(50))

	for _, f := range a.RollN(1000) {
		assert.True(t, f.Valid())
	}
}

func TestRollerShuffleIsPermutation(t *testing.T) {
	t.Parallel()
	r := NewRoller(rand.New(rand.NewPCG(7, 7)))
	ids := []int{0, 1, 2, 3, 4, 5}
	r.Shuffle(ids)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5}, ids)
}

func TestNewRollerRequiresRNG(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewRoller(nil) })
}
