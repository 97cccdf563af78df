package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	t.Parallel()
	a, b := New(42), New(42)
	for range 100 {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
	assert.NotEqual(t, New(1).Uint64(), New(2).Uint64())
}

func TestSeed(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(99), Seed(99))
	assert.NotZero(t, Seed(0))
}

func TestDerive(t *testing.T) {
	t.Parallel()
	p1, p2 := New(7), New(7)
	first, second := Derive(p1), Derive(p1)
	assert.NotEqual(t, first, second)
	assert.Equal(t, first, Derive(p2))
	assert.GreaterOrEqual(t, first, int64(0))
}
