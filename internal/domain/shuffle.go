package domain

import (
	"crypto/sha256"
	"encoding/binary"
)

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// SeededRNG is a SplitMix64 stream. The same seed always yields the same
// sequence, on every platform.
type SeededRNG struct {
	state uint64
}

// NewSeededRNG derives the initial state from the first 8 bytes of the
// SHA-256 of seed.
func NewSeededRNG(seed string) *SeededRNG {
	h := sha256.Sum256([]byte(seed))
	return &SeededRNG{state: binary.LittleEndian.Uint64(h[:8])}
}

func (r *SeededRNG) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Intn returns a value in [0, n). Panics if n <= 0.
func (r *SeededRNG) Intn(n int) int {
	if n <= 0 {
		panic("domain: Intn called with non-positive n")
	}
	// Rejection sampling keeps the distribution uniform.
	bound := uint64(n)
	limit := ^uint64(0) - (^uint64(0) % bound)
	for {
		v := r.next()
		if v < limit {
			return int(v % bound)
		}
	}
}

// Shuffle returns a permutation of items driven by rng. The input slice is
// not modified.
func Shuffle[T any](items []T, rng RNG) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// SeededShuffle is Shuffle with a stream derived from seed.
func SeededShuffle[T any](items []T, seed string) []T {
	return Shuffle(items, NewSeededRNG(seed))
}
