// Package query defines the query strategy role: choosing which unlabeled
// records the reviewer sees next.
package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/alscreen/internal/domain/seed"
)

// Strategy orders candidate records and returns the next n ids to label.
//
// Candidates are record ids; scores[i] is the relevance probability of
// candidates[i]. A nil scores slice means no trained model exists and the
// strategy falls back to a seeded random order. Ties are broken by a seeded
// permutation, never by record id.
type Strategy interface {
	Name() string
	Select(ctx context.Context, candidates []int, scores []float64, seed int64, n int) ([]int, error)
}

func check(candidates []int, scores []float64, n int) error {
	if scores != nil && len(scores) != len(candidates) {
		return fmt.Errorf("%w: %d scores for %d candidates", ErrShapeMismatch, len(scores), len(candidates))
	}
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, n)
	}
	return nil
}

func clamp(n, size int) int {
	if n > size {
		return size
	}
	return n
}

// rankBy orders candidate positions by key descending. Equal keys keep the
// order of a seeded permutation.
func rankBy(candidates []int, key func(i int) float64, s int64) []int {
	order := seed.Permutation(s, len(candidates))
	sort.SliceStable(order, func(a, b int) bool {
		return key(order[a]) > key(order[b])
	})
	return order
}

func ids(candidates, positions []int) []int {
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = candidates[p]
	}
	return out
}

// randomOrder returns the first n candidates of a seeded permutation.
func randomOrder(candidates []int, s int64, n int) []int {
	perm := seed.Permutation(s, len(candidates))
	return ids(candidates, perm[:clamp(n, len(candidates))])
}
