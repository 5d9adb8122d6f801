// Package balance defines the training-set balance role and its built-in
// strategies.
package balance

import (
	"context"

	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
)

// Sample is a rebalanced view of the training rows. Indices point into the
// rows passed to Rebalance; Weights[i] belongs to Indices[i].
type Sample struct {
	Indices []int
	Weights []float64
}

// Len returns the number of sampled rows.
func (s Sample) Len() int { return len(s.Indices) }

// Strategy rebalances labeled training data before the classifier is fit.
type Strategy interface {
	Name() string
	// Rebalance picks and weights rows of X. It never alters record
	// identity: every index refers to an input row.
	Rebalance(ctx context.Context, X feature.Matrix, y []model.Label, seed int64) (Sample, error)
}

func validate(X feature.Matrix, y []model.Label) error {
	if X.Len() != len(y) {
		return ErrShapeMismatch
	}
	if len(y) == 0 {
		return ErrEmptyTraining
	}
	for _, l := range y {
		if !l.Valid() {
			return model.ErrInvalidLabel
		}
	}
	return nil
}

func countClasses(y []model.Label) (relevant, irrelevant int) {
	for _, l := range y {
		if l == model.Relevant {
			relevant++
		} else {
			irrelevant++
		}
	}
	return relevant, irrelevant
}

func all(n int, w float64) Sample {
	s := Sample{Indices: make([]int, n), Weights: make([]float64, n)}
	for i := 0; i < n; i++ {
		s.Indices[i] = i
		s.Weights[i] = w
	}
	return s
}
