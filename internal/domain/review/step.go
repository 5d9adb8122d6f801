package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/alscreen/internal/domain/classifier"
	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/registry"
	"github.com/okian/alscreen/internal/domain/seed"
	"github.com/okian/alscreen/pkg/logger"
	"github.com/okian/alscreen/pkg/metrics"
)

// Step runs one cycle: featurize, train on the label history, score the
// unlabeled records, query a batch, label it through the oracle and append
// it. It returns true once the loop is STOPPED. A failed cycle returns a
// *CycleError and leaves the state untouched.
func (l *Loop) Step(ctx context.Context) (bool, error) {
	switch l.phase {
	case PhaseSeeding:
		return false, ErrNotSeeded
	case PhaseStopped:
		return true, l.Flush(ctx)
	}
	if l.opts.oracle == nil {
		return false, ErrNoOracle
	}

	start := time.Now()
	cycle := l.st.Cycle() + 1
	s := l.st.SettingsAt(cycle)
	if err := l.ensureModels(s); err != nil {
		return false, &CycleError{Cycle: cycle, Role: "registry", Err: err}
	}

	unlabeled := l.labels.Unlabeled()
	X, err := l.features(ctx, s.Feature)
	if err != nil {
		return false, l.fail(ctx, cycle, registry.RoleFeature, err)
	}

	scores, trained, err := l.score(ctx, X, unlabeled, s.Seed, cycle)
	if err != nil {
		var ce *CycleError
		if errors.As(err, &ce) {
			return false, l.fail(ctx, cycle, ce.Role, ce.Err)
		}
		return false, l.fail(ctx, cycle, registry.RoleClassifier, err)
	}

	n := s.NInstances
	if n > len(unlabeled) {
		n = len(unlabeled)
	}
	picked, err := l.models.Query.Select(ctx, unlabeled, scores, seed.Derive(s.Seed, seed.RoleQuery, cycle), n)
	if err != nil {
		return false, l.fail(ctx, cycle, registry.RoleQuery, err)
	}
	if err := l.checkSelection(picked, n); err != nil {
		return false, l.fail(ctx, cycle, registry.RoleQuery, err)
	}

	batch := make([]model.LabelEvent, 0, len(picked))
	for _, id := range picked {
		label, err := l.opts.oracle.Label(ctx, id)
		if err != nil {
			return false, l.fail(ctx, cycle, "oracle", err)
		}
		if !label.Valid() {
			return false, l.fail(ctx, cycle, "oracle", fmt.Errorf("%w: record %d", model.ErrInvalidLabel, id))
		}
		batch = append(batch, l.event(id, label, model.OriginModel, cycle, s, trained))
	}
	if err := l.append(batch); err != nil {
		return false, l.fail(ctx, cycle, "state", err)
	}

	elapsed := time.Since(start)
	metrics.RecordCycleCompleted(float64(elapsed.Microseconds()) / 1000)
	p := l.Progress()
	metrics.UpdateProgress(p.Cycle, p.Labeled, p.Relevant, p.Unlabeled)
	l.log.Debug(ctx, "cycle completed",
		logger.Int("cycle", cycle),
		logger.Int("batch", len(batch)),
		logger.Bool("trained", trained),
		logger.Int("relevant", p.Relevant),
		logger.Int("unlabeled", p.Unlabeled),
		logger.Duration("took", elapsed),
	)

	l.evaluateStop(ctx)
	if err := l.persistDue(ctx); err != nil {
		return false, err
	}
	if l.phase == PhaseStopped {
		return true, l.Flush(ctx)
	}
	return false, nil
}

func (l *Loop) fail(ctx context.Context, cycle int, role string, err error) error {
	metrics.RecordModelError(role)
	l.log.Error(ctx, "cycle failed",
		logger.Int("cycle", cycle),
		logger.String("role", role),
		logger.Error(err),
	)
	return &CycleError{Cycle: cycle, Role: role, Err: err}
}

// features returns the corpus feature matrix, row i belonging to record
// Records()[i]. Rows come from the cache when every record is present.
func (l *Loop) features(ctx context.Context, rc model.RoleConfig) (feature.Matrix, error) {
	cache := l.opts.cache
	cache.Bind(l.corpus.Fingerprint(), rc.Name+fmt.Sprint(rc.Params))

	ids := l.corpus.IDs()
	m, missing := cache.Lookup(ids)
	if len(missing) == 0 {
		metrics.RecordFeatureCache(len(ids), 0)
		return m, nil
	}
	metrics.RecordFeatureCache(len(ids)-len(missing), len(missing))

	start := time.Now()
	m, err := l.models.Extractor.FitTransform(ctx, l.corpus.Records(), seed.Derive(l.builtFor.Seed, seed.RoleFeature, 0))
	metrics.RecordFeatureExtractionLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		var ee *feature.ExtractionError
		if !l.opts.skipBad || !errors.As(err, &ee) {
			return feature.Matrix{}, err
		}
		l.log.Warn(ctx, "records featurized as zero vectors",
			logger.String("extractor", ee.Extractor),
			logger.Any("record_ids", ee.RecordIDs),
			logger.String("reason", ee.Reason),
		)
	}
	cache.Store(ids, m)
	return m, nil
}

// score trains on the label history in event order and scores the unlabeled
// rows. Without both classes in the history it returns nil scores and
// trained=false, and the query strategy falls back to its untrained order.
func (l *Loop) score(ctx context.Context, X feature.Matrix, unlabeled []int, base int64, cycle int) ([]float64, bool, error) {
	events := l.st.Events()
	rows := make([]int, len(events))
	y := make([]model.Label, len(events))
	var rel, irr int
	for i, ev := range events {
		rows[i], _ = l.corpus.Position(ev.RecordID)
		y[i] = ev.Label
		if ev.Label == model.Relevant {
			rel++
		} else {
			irr++
		}
	}
	if rel == 0 || irr == 0 {
		l.fallback(ctx, cycle, rel, irr)
		return nil, false, nil
	}

	train := X.Select(rows)
	sample, err := l.models.Balance.Rebalance(ctx, train, y, seed.Derive(base, seed.RoleBalance, cycle))
	if err != nil {
		return nil, false, &CycleError{Role: registry.RoleBalance, Err: err}
	}
	ys := make([]model.Label, sample.Len())
	for i, idx := range sample.Indices {
		ys[i] = y[idx]
	}

	fitted, err := l.models.Classifier.Fit(ctx, train.Select(sample.Indices), ys, sample.Weights, seed.Derive(base, seed.RoleClassifier, cycle))
	if errors.Is(err, classifier.ErrInsufficientClassDiversity) {
		l.fallback(ctx, cycle, rel, irr)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &CycleError{Role: registry.RoleClassifier, Err: err}
	}

	targets := make([]int, len(unlabeled))
	for i, id := range unlabeled {
		targets[i], _ = l.corpus.Position(id)
	}
	scores, err := l.opts.scorer.Score(ctx, fitted, X.Select(targets))
	if err != nil {
		return nil, false, &CycleError{Role: registry.RoleClassifier, Err: err}
	}
	return scores, true, nil
}

func (l *Loop) fallback(ctx context.Context, cycle, rel, irr int) {
	metrics.RecordModelFallback(registry.RoleClassifier)
	l.log.Info(ctx, "training data lacks a class, using untrained order",
		logger.Int("cycle", cycle),
		logger.Int("relevant", rel),
		logger.Int("irrelevant", irr),
	)
}

// checkSelection verifies the query returned n distinct unlabeled ids.
func (l *Loop) checkSelection(picked []int, n int) error {
	if len(picked) != n {
		return fmt.Errorf("%w: %d ids, want %d", ErrInvalidSelection, len(picked), n)
	}
	seen := make(map[int]struct{}, len(picked))
	for _, id := range picked {
		if !l.corpus.Has(id) || l.labels.IsLabeled(id) {
			return fmt.Errorf("%w: record %d is not an unlabeled candidate", ErrInvalidSelection, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: record %d picked twice", ErrInvalidSelection, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
