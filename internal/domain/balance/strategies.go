package balance

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/seed"
)

// Simple keeps every row with unit weight.
type Simple struct{}

// NewSimple creates the identity strategy.
func NewSimple() *Simple { return &Simple{} }

// Name implements Strategy.
func (s *Simple) Name() string { return "simple" }

// Rebalance implements Strategy.
func (s *Simple) Rebalance(_ context.Context, X feature.Matrix, y []model.Label, _ int64) (Sample, error) {
	if err := validate(X, y); err != nil {
		return Sample{}, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return all(len(y), 1), nil
}

// Weighted keeps every row and weights each class by n/(2*n_class), so both
// classes contribute equally to the loss.
type Weighted struct{}

// NewWeighted creates the class-weighting strategy.
func NewWeighted() *Weighted { return &Weighted{} }

// Name implements Strategy.
func (w *Weighted) Name() string { return "weighted" }

// Rebalance implements Strategy.
func (w *Weighted) Rebalance(_ context.Context, X feature.Matrix, y []model.Label, _ int64) (Sample, error) {
	if err := validate(X, y); err != nil {
		return Sample{}, fmt.Errorf("%s: %w", w.Name(), err)
	}
	rel, irr := countClasses(y)
	n := float64(len(y))
	s := all(len(y), 1)
	for i, l := range y {
		switch {
		case l == model.Relevant && rel > 0:
			s.Weights[i] = n / (2 * float64(rel))
		case l == model.Irrelevant && irr > 0:
			s.Weights[i] = n / (2 * float64(irr))
		}
	}
	return s, nil
}

const defaultUndersampleRatio = 1.0

// UndersampleOption applies a configuration option to Undersample.
type UndersampleOption func(*Undersample)

// WithRatio sets the number of irrelevant rows kept per relevant row.
func WithRatio(r float64) UndersampleOption {
	return func(u *Undersample) {
		if r > 0 && !math.IsInf(r, 0) {
			u.ratio = r
		}
	}
}

// Undersample keeps all relevant rows and a seeded subset of irrelevant
// rows. With no relevant rows every row is kept.
type Undersample struct {
	ratio float64
}

// NewUndersample creates the undersampling strategy.
func NewUndersample(opts ...UndersampleOption) *Undersample {
	u := &Undersample{ratio: defaultUndersampleRatio}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Name implements Strategy.
func (u *Undersample) Name() string { return "undersample" }

// Rebalance implements Strategy. Returned indices are ascending.
func (u *Undersample) Rebalance(_ context.Context, X feature.Matrix, y []model.Label, s int64) (Sample, error) {
	if err := validate(X, y); err != nil {
		return Sample{}, fmt.Errorf("%s: %w", u.Name(), err)
	}
	rel, irr := countClasses(y)
	keep := int(math.Ceil(u.ratio * float64(rel)))
	if rel == 0 || keep >= irr {
		return all(len(y), 1), nil
	}

	var relIdx, irrIdx []int
	for i, l := range y {
		if l == model.Relevant {
			relIdx = append(relIdx, i)
		} else {
			irrIdx = append(irrIdx, i)
		}
	}
	perm := seed.Permutation(s, len(irrIdx))
	picked := append([]int(nil), relIdx...)
	for _, p := range perm[:keep] {
		picked = append(picked, irrIdx[p])
	}
	sort.Ints(picked)

	out := Sample{Indices: picked, Weights: make([]float64, len(picked))}
	for i := range out.Weights {
		out.Weights[i] = 1
	}
	return out, nil
}
