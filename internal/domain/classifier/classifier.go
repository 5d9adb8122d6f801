// Package classifier defines the classifier role and its built-in
// implementations.
package classifier

import (
	"context"
	"fmt"

	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
)

// Classifier is trained on labeled rows and returns a scoring model.
type Classifier interface {
	Name() string
	// RequiresNonNegative reports whether Fit rejects negative feature values.
	RequiresNonNegative() bool
	// Fit trains on X with labels y and per-row weights w. A nil w means
	// unit weights. Training data with a single class fails with
	// ErrInsufficientClassDiversity.
	Fit(ctx context.Context, X feature.Matrix, y []model.Label, w []float64, seed int64) (Model, error)
}

// Model scores rows with the probability of relevance. PredictProba is safe
// for concurrent use.
type Model interface {
	PredictProba(ctx context.Context, X feature.Matrix) ([]float64, error)
}

func checkTraining(X feature.Matrix, y []model.Label, w []float64, nonNegative bool) ([]float64, error) {
	if X.Len() != len(y) || (w != nil && len(w) != len(y)) {
		return nil, ErrShapeMismatch
	}
	var rel, irr int
	for _, l := range y {
		switch l {
		case model.Relevant:
			rel++
		case model.Irrelevant:
			irr++
		default:
			return nil, model.ErrInvalidLabel
		}
	}
	if rel == 0 || irr == 0 {
		return nil, fmt.Errorf("%w: %d relevant, %d irrelevant", ErrInsufficientClassDiversity, rel, irr)
	}
	if nonNegative {
		for i, row := range X.Rows {
			for _, v := range row.Value {
				if v < 0 {
					return nil, fmt.Errorf("%w: row %d", ErrNegativeFeature, i)
				}
			}
		}
	}
	if w == nil {
		w = make([]float64, len(y))
		for i := range w {
			w[i] = 1
		}
	}
	return w, nil
}
