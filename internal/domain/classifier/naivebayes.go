package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
)

const defaultAlpha = 3.822

// NBOption applies a configuration option to NaiveBayes.
type NBOption func(*NaiveBayes)

// WithAlpha sets the additive smoothing parameter.
func WithAlpha(a float64) NBOption {
	return func(nb *NaiveBayes) {
		if a > 0 {
			nb.alpha = a
		}
	}
}

// NaiveBayes is a multinomial naive Bayes classifier over non-negative
// features.
type NaiveBayes struct {
	alpha float64
}

// NewNaiveBayes creates a naive Bayes classifier.
func NewNaiveBayes(opts ...NBOption) *NaiveBayes {
	nb := &NaiveBayes{alpha: defaultAlpha}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Name implements Classifier.
func (nb *NaiveBayes) Name() string { return "nb" }

// RequiresNonNegative implements Classifier.
func (nb *NaiveBayes) RequiresNonNegative() bool { return true }

// Fit implements Classifier. The seed is unused.
func (nb *NaiveBayes) Fit(ctx context.Context, X feature.Matrix, y []model.Label, w []float64, _ int64) (Model, error) {
	w, err := checkTraining(X, y, w, true)
	if err != nil {
		return nil, fmt.Errorf("nb: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("nb: %w", err)
	}

	var counts [2][]float64
	var totals, priors [2]float64
	counts[0] = make([]float64, X.Dim)
	counts[1] = make([]float64, X.Dim)
	for i, row := range X.Rows {
		c := class(y[i])
		priors[c] += w[i]
		for k, j := range row.Index {
			v := w[i] * row.Value[k]
			counts[c][j] += v
			totals[c] += v
		}
	}

	m := &nbModel{dim: X.Dim}
	wsum := priors[0] + priors[1]
	for c := 0; c < 2; c++ {
		m.logPrior[c] = math.Log(priors[c] / wsum)
		m.logProb[c] = make([]float64, X.Dim)
		denom := math.Log(totals[c] + nb.alpha*float64(X.Dim))
		for j := range counts[c] {
			m.logProb[c][j] = math.Log(counts[c][j]+nb.alpha) - denom
		}
	}
	return m, nil
}

// class maps relevant to 1 and irrelevant to 0.
func class(l model.Label) int {
	if l == model.Relevant {
		return 1
	}
	return 0
}

type nbModel struct {
	dim      int
	logPrior [2]float64
	logProb  [2][]float64
}

func (m *nbModel) PredictProba(ctx context.Context, X feature.Matrix) ([]float64, error) {
	if X.Dim != m.dim {
		return nil, fmt.Errorf("nb: %w: %d != %d", ErrDimensionMismatch, X.Dim, m.dim)
	}
	out := make([]float64, X.Len())
	for i, row := range X.Rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("nb: %w", err)
			}
		}
		irr := m.logPrior[0] + row.Dot(m.logProb[0])
		rel := m.logPrior[1] + row.Dot(m.logProb[1])
		out[i] = sigmoid(rel - irr)
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
