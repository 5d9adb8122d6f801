package review

import (
	"context"
	"fmt"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/seed"
	"github.com/okian/alscreen/internal/domain/state"
	"github.com/okian/alscreen/pkg/logger"
	"github.com/okian/alscreen/pkg/metrics"
)

// PriorSpec selects the prior knowledge of a review. Explicit ids take
// precedence per class; otherwise NIncluded and NExcluded records are
// sampled from the ground truth with the prior seed.
type PriorSpec struct {
	Included  []int
	Excluded  []int
	NIncluded int
	NExcluded int
}

// Seed writes the priors (included first, then excluded) as cycle 0 events
// and moves the loop to RUNNING.
func (l *Loop) Seed(ctx context.Context, spec PriorSpec) error {
	if l.phase != PhaseSeeding {
		return ErrAlreadySeeded
	}

	base := l.settings.Seed
	included, err := l.pick(spec.Included, spec.NIncluded, model.Relevant, spec.Excluded, seed.Derive(base, seed.RolePrior, 0))
	if err != nil {
		return err
	}
	excluded, err := l.pick(spec.Excluded, spec.NExcluded, model.Irrelevant, included, seed.Derive(base, seed.RolePrior, 1))
	if err != nil {
		return err
	}
	if err := checkOverlap(included, excluded); err != nil {
		return err
	}

	st := state.New(l.corpus.Ref(), l.settings, l.opts.clock())
	events := make([]model.LabelEvent, 0, len(included)+len(excluded))
	for _, id := range included {
		events = append(events, l.event(id, model.Relevant, model.OriginPrior, 0, l.settings, false))
	}
	for _, id := range excluded {
		events = append(events, l.event(id, model.Irrelevant, model.OriginPrior, 0, l.settings, false))
	}
	if err := st.AppendPriors(events); err != nil {
		return err
	}

	labels := corpus.NewLabels(l.corpus)
	for _, ev := range events {
		if err := labels.Set(ev.RecordID, ev.Label); err != nil {
			return err
		}
		metrics.RecordLabelAppended(ev.Origin.String(), ev.Label.String())
	}
	l.st = st
	l.labels = labels
	l.phase = PhaseRunning
	if labels.Remaining() == 0 {
		l.phase = PhaseStopped
	}

	l.log.Info(ctx, "priors seeded",
		logger.String("project", st.ProjectID()),
		logger.Int("included", len(included)),
		logger.Int("excluded", len(excluded)),
	)
	l.unsaved = true
	if l.opts.writeInterval > 0 {
		return l.Flush(ctx)
	}
	return nil
}

// pick returns the explicit ids of one class or samples n of them from the
// ground truth, skipping ids reserved for the other class.
func (l *Loop) pick(explicit []int, n int, label model.Label, reserved []int, s int64) ([]int, error) {
	if len(explicit) > 0 {
		seen := make(map[int]struct{}, len(explicit))
		for _, id := range explicit {
			if !l.corpus.Has(id) {
				return nil, fmt.Errorf("%w: prior %d", corpus.ErrUnknownRecord, id)
			}
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("%w: prior %d listed twice", ErrPriorOverlap, id)
			}
			seen[id] = struct{}{}
			if truth, ok := l.corpus.Truth(id); ok && truth != label {
				return nil, fmt.Errorf("%w: record %d is %s, given as %s", ErrPriorMismatch, id, truth, label)
			}
		}
		return append([]int(nil), explicit...), nil
	}
	if n <= 0 {
		return nil, nil
	}

	skip := make(map[int]struct{}, len(reserved))
	for _, id := range reserved {
		skip[id] = struct{}{}
	}
	var pool []int
	for _, id := range l.corpus.WithTruth(label) {
		if _, ok := skip[id]; !ok {
			pool = append(pool, id)
		}
	}
	if len(pool) < n {
		return nil, &InsufficientPriorError{Label: label, Wanted: n, Available: len(pool)}
	}
	perm := seed.Permutation(s, len(pool))
	out := make([]int, n)
	for i := range out {
		out[i] = pool[perm[i]]
	}
	return out, nil
}

func checkOverlap(included, excluded []int) error {
	in := make(map[int]struct{}, len(included))
	for _, id := range included {
		in[id] = struct{}{}
	}
	for _, id := range excluded {
		if _, ok := in[id]; ok {
			return fmt.Errorf("%w: %d", ErrPriorOverlap, id)
		}
	}
	return nil
}
