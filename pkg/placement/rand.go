package placement

import "math/rand"

// RandSource is the capability contract for the pseudo-random source the
// selectors use to break ties between otherwise-equal candidates. Tests
// substitute a deterministic implementation so that identical inputs plus
// an identical seed always produce identical output (spec.md section 8,
// property 4).
type RandSource interface {
	// Intn returns a pseudo-random number in [0,n). Behavior is undefined
	// for n <= 0.
	Intn(n int) int
}

// seededRand wraps math/rand.Rand seeded with a caller-supplied value.
type seededRand struct {
	r *rand.Rand
}

// NewSeededRand returns a RandSource whose output is a deterministic
// function of seed: the same seed always produces the same sequence of
// draws, which is what makes selector output reproducible across runs
// given the same snapshot and the same seed.
func NewSeededRand(seed int64) RandSource {
	return &seededRand{r: rand.New(rand.NewSource(seed))}
}

func (s *seededRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.Intn(n)
}

// stableRand always draws 0, the simplest RandSource that satisfies the
// determinism property (spec.md section 8, property 4) without pulling in
// math/rand: given the same candidate set it always produces the same
// permutation, so tests and single-node deployments can use it as the
// default tie-break without worrying about seed management.
type stableRand struct{}

// NewStableRand returns the always-0 RandSource.
func NewStableRand() RandSource { return stableRand{} }

func (stableRand) Intn(int) int { return 0 }
