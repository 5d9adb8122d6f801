package simulate

import (
	"context"
	"fmt"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
)

// GroundTruth answers label queries from the corpus ground truth.
type GroundTruth struct {
	corpus  *corpus.Corpus
	queries int
}

// NewGroundTruth returns an oracle over c.
func NewGroundTruth(c *corpus.Corpus) *GroundTruth {
	return &GroundTruth{corpus: c}
}

// Label returns the true label of recordID.
func (g *GroundTruth) Label(_ context.Context, recordID int) (model.Label, error) {
	l, ok := g.corpus.Truth(recordID)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoGroundTruth, recordID)
	}
	g.queries++
	return l, nil
}

// Queries returns how many labels were answered.
func (g *GroundTruth) Queries() int { return g.queries }
