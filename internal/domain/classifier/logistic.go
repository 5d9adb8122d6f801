package classifier

import (
	"context"
	"fmt"

	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/seed"
)

// Default logistic regression configuration constants.
const (
	defaultEpochs       = 20
	defaultLearningRate = 0.1
	defaultL2           = 1e-4
	minScale            = 1e-9
)

// LogisticOption applies a configuration option to Logistic.
type LogisticOption func(*Logistic)

// WithEpochs sets the number of passes over the training rows.
func WithEpochs(n int) LogisticOption {
	return func(l *Logistic) {
		if n > 0 {
			l.epochs = n
		}
	}
}

// WithLearningRate sets the SGD step size.
func WithLearningRate(r float64) LogisticOption {
	return func(l *Logistic) {
		if r > 0 {
			l.learningRate = r
		}
	}
}

// WithL2 sets the L2 penalty.
func WithL2(p float64) LogisticOption {
	return func(l *Logistic) {
		if p >= 0 {
			l.l2 = p
		}
	}
}

// Logistic is an L2-regularized logistic regression trained by SGD. Row
// order per epoch comes from the seed.
type Logistic struct {
	epochs       int
	learningRate float64
	l2           float64
}

// NewLogistic creates a logistic regression classifier.
func NewLogistic(opts ...LogisticOption) *Logistic {
	l := &Logistic{epochs: defaultEpochs, learningRate: defaultLearningRate, l2: defaultL2}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name implements Classifier.
func (l *Logistic) Name() string { return "logistic" }

// RequiresNonNegative implements Classifier.
func (l *Logistic) RequiresNonNegative() bool { return false }

// Fit implements Classifier.
func (l *Logistic) Fit(ctx context.Context, X feature.Matrix, y []model.Label, w []float64, s int64) (Model, error) {
	w, err := checkTraining(X, y, w, false)
	if err != nil {
		return nil, fmt.Errorf("logistic: %w", err)
	}

	// The effective weights are scale*v; decay only touches scale.
	v := make([]float64, X.Dim)
	scale := 1.0
	var bias float64
	rng := seed.New(s)
	decay := 1 - l.learningRate*l.l2

	for epoch := 0; epoch < l.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("logistic: %w", err)
		}
		for _, i := range rng.Perm(X.Len()) {
			row := X.Rows[i]
			p := sigmoid(scale*row.Dot(v) + bias)
			g := (p - float64(class(y[i]))) * w[i]

			scale *= decay
			if scale < minScale {
				for j := range v {
					v[j] *= scale
				}
				scale = 1
			}
			step := l.learningRate * g / scale
			for k, j := range row.Index {
				v[j] -= step * row.Value[k]
			}
			bias -= l.learningRate * g
		}
	}

	for j := range v {
		v[j] *= scale
	}
	return &logisticModel{weights: v, bias: bias}, nil
}

type logisticModel struct {
	weights []float64
	bias    float64
}

func (m *logisticModel) PredictProba(ctx context.Context, X feature.Matrix) ([]float64, error) {
	if X.Dim != len(m.weights) {
		return nil, fmt.Errorf("logistic: %w: %d != %d", ErrDimensionMismatch, X.Dim, len(m.weights))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("logistic: %w", err)
	}
	out := make([]float64, X.Len())
	for i, row := range X.Rows {
		out[i] = sigmoid(row.Dot(m.weights) + m.bias)
	}
	return out, nil
}
