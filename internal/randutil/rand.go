package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises how we derive the two 64-bit seeds required by rand/v2
// so that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive folds parts into seed, producing an independent stream seed for a
// sub-task such as one (iteration, player) traversal. The result depends only
// on its inputs, so work split across goroutines replays identically.
func Derive(seed int64, parts ...int64) int64 {
	h := mix(uint64(seed))
	for _, p := range parts {
		h = mix(h ^ (uint64(p) + goldenRatio64 + h<<6 + h>>2))
	}
	return int64(h)
}

// Seed returns seed unless it is zero, in which case a time based seed is used.
func Seed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
