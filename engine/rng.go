package engine

import "math/rand"

// RNG is the ambience generator: it picks haunt murmurs and flavor lines.
// Every draw advances a tracked position so a save can rebuild the exact
// generator state. The patch simulation does not use it; simulation output
// is a pure function of its inputs.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int
}

// NewRNG creates a deterministic generator from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Intn returns a value in [0, n).
func (r *RNG) Intn(n int) int {
	r.pos++
	return r.src.Intn(n)
}

// Chance reports true with probability p.
func (r *RNG) Chance(p float64) bool {
	r.pos++
	return r.src.Float64() < p
}

// Pick returns one of the options, or "" when there are none.
func (r *RNG) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[r.Intn(len(options))]
}

// Seed returns the seed the generator was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int {
	return r.pos
}

// RestoreRNG rebuilds a generator at the given position by replaying
// draws, reproducing the saved state exactly.
func RestoreRNG(seed int64, position int) *RNG {
	r := NewRNG(seed)
	for i := 0; i < position; i++ {
		r.src.Int63()
	}
	r.pos = position
	return r
}
