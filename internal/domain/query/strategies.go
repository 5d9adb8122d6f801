package query

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/alscreen/internal/domain/seed"
)

// Max picks the highest scoring candidates.
type Max struct{}

// NewMax creates the max strategy.
func NewMax() *Max { return &Max{} }

// Name implements Strategy.
func (m *Max) Name() string { return "max" }

// Select implements Strategy.
func (m *Max) Select(_ context.Context, candidates []int, scores []float64, s int64, n int) ([]int, error) {
	if err := check(candidates, scores, n); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	if scores == nil {
		return randomOrder(candidates, s, n), nil
	}
	order := rankBy(candidates, func(i int) float64 { return scores[i] }, s)
	return ids(candidates, order[:clamp(n, len(order))]), nil
}

// Random picks candidates in a seeded random order, ignoring scores.
type Random struct{}

// NewRandom creates the random strategy.
func NewRandom() *Random { return &Random{} }

// Name implements Strategy.
func (r *Random) Name() string { return "random" }

// Select implements Strategy.
func (r *Random) Select(_ context.Context, candidates []int, scores []float64, s int64, n int) ([]int, error) {
	if err := check(candidates, scores, n); err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name(), err)
	}
	return randomOrder(candidates, s, n), nil
}

// Uncertainty picks the candidates whose score is closest to 0.5.
type Uncertainty struct{}

// NewUncertainty creates the uncertainty strategy.
func NewUncertainty() *Uncertainty { return &Uncertainty{} }

// Name implements Strategy.
func (u *Uncertainty) Name() string { return "uncertainty" }

// Select implements Strategy.
func (u *Uncertainty) Select(_ context.Context, candidates []int, scores []float64, s int64, n int) ([]int, error) {
	if err := check(candidates, scores, n); err != nil {
		return nil, fmt.Errorf("%s: %w", u.Name(), err)
	}
	if scores == nil {
		return randomOrder(candidates, s, n), nil
	}
	order := rankBy(candidates, func(i int) float64 { return -math.Abs(scores[i] - 0.5) }, s)
	return ids(candidates, order[:clamp(n, len(order))]), nil
}

const defaultMixRatio = 0.95

// MixedOption applies a configuration option to MaxRandom.
type MixedOption func(*MaxRandom)

// WithMixRatio sets the share of each batch picked by score, in [0, 1].
func WithMixRatio(r float64) MixedOption {
	return func(m *MaxRandom) {
		if r >= 0 && r <= 1 {
			m.ratio = r
		}
	}
}

// MaxRandom picks round(ratio*n) candidates by score and fills the rest of
// the batch at random from the remainder.
type MaxRandom struct {
	ratio float64
}

// NewMaxRandom creates the mixed strategy.
func NewMaxRandom(opts ...MixedOption) *MaxRandom {
	m := &MaxRandom{ratio: defaultMixRatio}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Strategy.
func (m *MaxRandom) Name() string { return "max_random" }

// Select implements Strategy.
func (m *MaxRandom) Select(_ context.Context, candidates []int, scores []float64, s int64, n int) ([]int, error) {
	if err := check(candidates, scores, n); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	if scores == nil {
		return randomOrder(candidates, s, n), nil
	}
	n = clamp(n, len(candidates))
	nMax := int(math.Round(m.ratio * float64(n)))

	order := rankBy(candidates, func(i int) float64 { return scores[i] }, s)
	picked := append([]int(nil), order[:nMax]...)
	rest := order[nMax:]
	perm := seed.Permutation(s^int64(len(rest)), len(rest))
	for _, p := range perm[:n-nMax] {
		picked = append(picked, rest[p])
	}
	return ids(candidates, picked), nil
}
