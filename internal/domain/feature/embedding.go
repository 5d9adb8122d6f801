package feature

import (
	"context"
	"fmt"

	"github.com/okian/alscreen/internal/domain/model"
)

// Embedding passes pre-embedded record vectors through unchanged. All
// vectors must have the same width; records without a vector are reported.
type Embedding struct{}

// NewEmbedding creates a pass-through extractor.
func NewEmbedding() *Embedding { return &Embedding{} }

// Name implements Extractor.
func (e *Embedding) Name() string { return "embedding" }

// NonNegative implements Extractor. Embeddings are signed.
func (e *Embedding) NonNegative() bool { return false }

// FitTransform implements Extractor.
func (e *Embedding) FitTransform(ctx context.Context, records []model.Record, _ int64) (Matrix, error) {
	if err := ctx.Err(); err != nil {
		return Matrix{}, fmt.Errorf("embedding: %w", err)
	}

	dim := -1
	var missing []int
	m := Matrix{Rows: make([]Vector, len(records))}
	for i, r := range records {
		if len(r.Vector) == 0 {
			missing = append(missing, r.ID)
			continue
		}
		if dim == -1 {
			dim = len(r.Vector)
		} else if len(r.Vector) != dim {
			return Matrix{}, fmt.Errorf("%w: record %d has %d, expected %d", ErrDimensionMatch, r.ID, len(r.Vector), dim)
		}
		m.Rows[i] = Dense(r.Vector)
	}
	if dim < 0 {
		dim = 0
	}
	m.Dim = dim

	if len(missing) > 0 {
		return m, &ExtractionError{Extractor: e.Name(), RecordIDs: missing, Reason: "no embedding vector"}
	}
	return m, nil
}
