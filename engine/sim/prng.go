package sim

import "math"

// prng is the seeded pseudo-random stream used for simulation outcomes.
// The seed is a stable hash of the diff text mapped through a sine-based
// generator, so identical patches always replay the same stream. This is
// deliberately separate from the engine's narrative RNG: conflating the
// two would break deterministic replay of simulations.
type prng struct {
	seed float64
	n    float64
}

// newPRNG derives a deterministic stream from the diff text. The salt
// separates the compilation, performance, and quality streams so each
// analysis is reproducible regardless of the order the others run in.
func newPRNG(diff, salt string) *prng {
	return &prng{seed: float64(hashString(salt + diff))}
}

// next returns the next value in [0,1).
func (p *prng) next() float64 {
	p.n++
	x := math.Sin(p.seed+p.n*12.9898) * 10000
	return x - math.Floor(x)
}

// jitter returns a bounded pseudo-random value in [0, max).
func (p *prng) jitter(max float64) float64 {
	return p.next() * max
}

// intn returns a deterministic integer in [0, n). n must be positive.
func (p *prng) intn(n int) int {
	return int(p.next() * float64(n))
}

// hashString is a djb2 hash: stable across runs and platforms.
func hashString(s string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}
