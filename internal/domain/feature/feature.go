// Package feature defines the feature extraction role and its built-in
// implementations.
package feature

import (
	"context"
	"math"

	"github.com/okian/alscreen/internal/domain/model"
)

// Vector is a sparse feature row. Index is ascending and unique.
type Vector struct {
	Index []int
	Value []float64
}

// Dot returns the dot product of v with a dense weight vector. Entries past
// the end of w are ignored.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for k, j := range v.Index {
		if j < len(w) {
			sum += v.Value[k] * w[j]
		}
	}
	return sum
}

// Len returns the number of stored entries.
func (v Vector) Len() int { return len(v.Index) }

// Dense builds a Vector holding every entry of values, zeros included.
func Dense(values []float64) Vector {
	idx := make([]int, len(values))
	for i := range values {
		idx[i] = i
	}
	return Vector{Index: idx, Value: append([]float64(nil), values...)}
}

// Matrix is a list of rows sharing one column space of width Dim.
type Matrix struct {
	Rows []Vector
	Dim  int
}

// Len returns the number of rows.
func (m Matrix) Len() int { return len(m.Rows) }

// Select returns the rows at the given positions, in that order.
func (m Matrix) Select(rows []int) Matrix {
	out := Matrix{Rows: make([]Vector, len(rows)), Dim: m.Dim}
	for i, r := range rows {
		out.Rows[i] = m.Rows[r]
	}
	return out
}

// Slice returns rows [start, end).
func (m Matrix) Slice(start, end int) Matrix {
	return Matrix{Rows: m.Rows[start:end], Dim: m.Dim}
}

// Extractor turns records into feature rows, one per record and in the same
// order. Implementations must be deterministic for a given seed and record set.
type Extractor interface {
	// Name returns the registry name of the extractor.
	Name() string
	// NonNegative reports whether every produced value is >= 0.
	NonNegative() bool
	// FitTransform fits the extractor on records and returns their features.
	// Records that cannot be featurized are reported together in an
	// *ExtractionError; the returned matrix then holds zero rows for them.
	FitTransform(ctx context.Context, records []model.Record, seed int64) (Matrix, error)
}

func l2normalize(values []float64) {
	var norm float64
	for _, v := range values {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range values {
		values[i] /= norm
	}
}
