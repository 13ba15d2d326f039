// Package rng provides the seeded random source used for combat rolls.
package rng

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every draw.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// New creates a deterministic RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// UniformInt returns an integer in [lo, hi], both inclusive.
// If hi < lo the bounds are swapped.
func (r *RNG) UniformInt(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	r.pos++
	return lo + r.src.Intn(hi-lo+1)
}

// PercentRoll succeeds with probability p percent. p >= 100 always
// succeeds and p <= 0 never does, but both still consume a draw.
func (r *RNG) PercentRoll(p int) bool {
	r.pos++
	return r.src.Intn(100) < p
}

// Intn returns an integer in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	r.pos++
	return r.src.Intn(n)
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}
