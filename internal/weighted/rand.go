package weighted

import (
	"math/rand/v2"
	"time"
)

// Rand is the source of randomness used by every probabilistic choice.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a PCG backed source seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewTimeRand returns a source seeded from the wall clock.
func NewTimeRand() *rand.Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

// Between returns a uniform integer in [lo, hi]. If hi <= lo, lo is returned.
func Between(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// Shuffle permutes s in place (Fisher-Yates).
func Shuffle[T any](r Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
