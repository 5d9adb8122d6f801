package balance

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/seed"
)

// Default double balance curve parameters.
const (
	defaultDoubleA     = 2.155
	defaultDoubleAlpha = 0.94
	defaultDoubleB     = 0.789
	defaultDoubleBeta  = 1.0
)

// DoubleOption applies a configuration option to Double.
type DoubleOption func(*Double)

// WithRelevantCurve sets the weight a*(rel/irr)^-alpha of relevant rows.
func WithRelevantCurve(a, alpha float64) DoubleOption {
	return func(d *Double) {
		if a > 0 && alpha >= 0 {
			d.a, d.alpha = a, alpha
		}
	}
}

// WithIrrelevantCurve sets the weight 1-(1-b)*(1+ln n)^-beta of irrelevant rows.
func WithIrrelevantCurve(b, beta float64) DoubleOption {
	return func(d *Double) {
		if b > 0 && b <= 1 && beta >= 0 {
			d.b, d.beta = b, beta
		}
	}
}

// Double resamples the training rows, with replacement across copies, to a
// set of the same size in which relevant rows are over-represented. The
// relevant share shrinks as more rows are read. Each class is repeated whole
// before a seeded remainder is drawn without replacement.
type Double struct {
	a, alpha float64
	b, beta  float64
}

// NewDouble creates the double balance strategy.
func NewDouble(opts ...DoubleOption) *Double {
	d := &Double{
		a:     defaultDoubleA,
		alpha: defaultDoubleAlpha,
		b:     defaultDoubleB,
		beta:  defaultDoubleBeta,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements Strategy.
func (d *Double) Name() string { return "double" }

// Rebalance implements Strategy. Returned indices are ascending and may
// repeat. With a single class every row is kept once.
func (d *Double) Rebalance(_ context.Context, X feature.Matrix, y []model.Label, s int64) (Sample, error) {
	if err := validate(X, y); err != nil {
		return Sample{}, fmt.Errorf("%s: %w", d.Name(), err)
	}
	var relIdx, irrIdx []int
	for i, l := range y {
		if l == model.Relevant {
			relIdx = append(relIdx, i)
		} else {
			irrIdx = append(irrIdx, i)
		}
	}
	if len(relIdx) == 0 || len(irrIdx) == 0 {
		return all(len(y), 1), nil
	}

	n := len(y)
	nRel, nIrr := float64(len(relIdx)), float64(len(irrIdx))
	relWeight := d.a * math.Pow(nRel/nIrr, -d.alpha)
	irrWeight := 1 - (1-d.b)*math.Pow(1+math.Log(float64(n)), -d.beta)

	rng := seed.New(s)
	relTrain := randomRound(rng, relWeight*nRel*float64(n)/(relWeight*nRel+irrWeight*nIrr))
	relTrain = max(1, min(n-1, relTrain))

	picked := fill(rng, relIdx, relTrain)
	picked = append(picked, fill(rng, irrIdx, n-relTrain)...)
	sort.Ints(picked)
	out := Sample{Indices: picked, Weights: make([]float64, len(picked))}
	for i := range out.Weights {
		out.Weights[i] = 1
	}
	return out, nil
}

// fill returns n indices from src: whole copies of src, then a seeded subset.
func fill(rng *rand.Rand, src []int, n int) []int {
	out := make([]int, 0, n)
	for n-len(out) >= len(src) {
		out = append(out, src...)
	}
	for _, p := range rng.Perm(len(src))[:n-len(out)] {
		out = append(out, src[p])
	}
	return out
}

func randomRound(rng *rand.Rand, x float64) int {
	f := math.Floor(x)
	if rng.Float64() < x-f {
		f++
	}
	return int(f)
}
