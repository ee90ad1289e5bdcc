package duel

import "math/rand/v2"

// Rand is the randomness source for field generation and effects.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a reproducible source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// between returns a value in [lo, hi).
func between(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// intn returns an int in [0, n).
func intn(rng Rand, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
