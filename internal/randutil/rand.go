package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// All matches, bots and simulations derive their randomness through here so
// a single seed reproduces an entire run.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns seed unless it is zero, in which case a time-based seed is
// chosen. The chosen value is returned so callers can log it for replay.
func Seed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// Derive draws a child seed from parent. Sibling matches get independent,
// reproducible streams without sharing a source across goroutines.
func Derive(parent *rand.Rand) int64 {
	return int64(parent.Uint64() >> 1)
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
