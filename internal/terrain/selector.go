package terrain

import "math/rand/v2"

// Selector picks the index of the next template among n configured templates.
// n is always > 0. Tests inject a deterministic Selector.
type Selector interface {
	Pick(n int) int
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(n int) int

// Pick implements Selector.
func (f SelectorFunc) Pick(n int) int {
	return f(n)
}

// RandomSelector picks uniformly from a seeded source.
type RandomSelector struct {
	rng *rand.Rand
}

// NewRandomSelector returns a RandomSelector whose sequence is fixed by seed.
func NewRandomSelector(seed uint64) *RandomSelector {
	return &RandomSelector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick implements Selector.
func (r *RandomSelector) Pick(n int) int {
	return r.rng.IntN(n)
}

// globalSelector uses the runtime-seeded global source. No determinism.
type globalSelector struct{}

func (globalSelector) Pick(n int) int {
	return rand.IntN(n)
}
