// Package review runs the active learning review loop: it ranks unlabeled
// records with the configured models, asks an oracle for labels, appends the
// answers to the Review State and decides when to stop.
//
// A Loop moves through three phases. It starts in SEEDING, enters RUNNING
// once priors are seeded (or a state is resumed) and ends in STOPPED when the
// stop rule fires or no unlabeled record is left. Every cycle is atomic:
// either the whole batch is appended or the state is left untouched.
package review

import (
	"context"
	"fmt"
	"reflect"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/registry"
	"github.com/okian/alscreen/internal/domain/state"
	"github.com/okian/alscreen/pkg/logger"
	"github.com/okian/alscreen/pkg/metrics"
)

// Loop drives one review. It is not safe for concurrent use.
type Loop struct {
	corpus   *corpus.Corpus
	reg      *registry.Registry
	opts     options
	log      logger.Logger
	settings model.Settings
	models   registry.Models
	builtFor model.Settings
	st       *state.State
	labels   *corpus.Labels
	phase    Phase
	unsaved  bool
}

// New creates a loop in SEEDING. Configuration errors surface here, before
// any state exists.
func New(c *corpus.Corpus, reg *registry.Registry, s model.Settings, opts ...Option) (*Loop, error) {
	models, err := reg.Build(s)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	return &Loop{
		corpus:   c,
		reg:      reg,
		opts:     o,
		log:      o.log,
		settings: s.Clone(),
		models:   models,
		builtFor: s.Clone(),
		labels:   corpus.NewLabels(c),
		phase:    PhaseSeeding,
	}, nil
}

// Resume continues the review recorded in st. The corpus must be the one the
// state was created with.
func Resume(c *corpus.Corpus, reg *registry.Registry, st *state.State, opts ...Option) (*Loop, error) {
	if !c.Matches(st.Corpus()) {
		return nil, fmt.Errorf("%w: state has %d records (%s), corpus has %d (%s)",
			ErrCorpusMismatch, st.Corpus().Records, st.Corpus().Fingerprint, c.Len(), c.Fingerprint())
	}
	current := st.Current()
	l, err := New(c, reg, current, opts...)
	if err != nil {
		return nil, err
	}
	for _, ev := range st.Events() {
		if err := l.labels.Set(ev.RecordID, ev.Label); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorpusMismatch, err)
		}
	}
	l.st = st
	l.phase = PhaseRunning
	if l.labels.Remaining() == 0 || (st.Cycle() > 0 && l.opts.stop.Done(l.Progress(), l.labels.IsLabeled)) {
		l.phase = PhaseStopped
	}
	l.log.Info(context.Background(), "review resumed",
		logger.String("project", st.ProjectID()),
		logger.Int("cycle", st.Cycle()),
		logger.Int("labeled", l.labels.Count()),
		logger.String("phase", l.phase.String()),
	)
	return l, nil
}

// Phase returns the current phase.
func (l *Loop) Phase() Phase { return l.phase }

// State returns the review state, nil before seeding. Callers must treat it
// as read-only.
func (l *Loop) State() *state.State { return l.st }

// Labels returns the current label view. Callers must treat it as read-only.
func (l *Loop) Labels() *corpus.Labels { return l.labels }

// Progress reports where the review stands.
func (l *Loop) Progress() Progress {
	p := Progress{
		Phase:     l.phase,
		Labeled:   l.labels.Count(),
		Relevant:  l.labels.Relevant(),
		Unlabeled: l.labels.Remaining(),
	}
	if l.st != nil {
		p.Cycle = l.st.Cycle()
		p.NonPrior = l.st.NonPrior()
	}
	return p
}

// Run repeats Step until the loop stops, ctx is cancelled or a cycle fails.
// Completed cycles that were not yet persisted are flushed on every exit.
// ctx is only checked between cycles.
func (l *Loop) Run(ctx context.Context) (err error) {
	if l.phase == PhaseSeeding {
		return ErrNotSeeded
	}
	defer func() {
		if ferr := l.Flush(context.WithoutCancel(ctx)); ferr != nil && err == nil {
			err = ferr
		}
	}()
	for {
		if err := ctx.Err(); err != nil {
			l.log.Info(ctx, "review interrupted", logger.Int("cycle", l.st.Cycle()))
			return err
		}
		done, err := l.Step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Flush persists the state if anything changed since the last save.
func (l *Loop) Flush(ctx context.Context) error {
	if !l.unsaved || l.opts.saver == nil || l.st == nil {
		return nil
	}
	if err := l.opts.saver.Save(ctx, l.st); err != nil {
		return err
	}
	l.unsaved = false
	return nil
}

// persistDue saves after cycles that are a multiple of the write interval.
func (l *Loop) persistDue(ctx context.Context) error {
	l.unsaved = true
	k := l.opts.writeInterval
	if k > 0 && l.st.Cycle()%k == 0 {
		return l.Flush(ctx)
	}
	return nil
}

// LabelExternal appends a single-record batch chosen by the oracle itself.
func (l *Loop) LabelExternal(ctx context.Context, recordID int, label model.Label) error {
	if l.phase == PhaseSeeding {
		return ErrNotSeeded
	}
	if !l.corpus.Has(recordID) {
		return fmt.Errorf("%w: %d", corpus.ErrUnknownRecord, recordID)
	}
	if l.labels.IsLabeled(recordID) {
		return fmt.Errorf("%w: %d", corpus.ErrAlreadyLabeled, recordID)
	}
	if !label.Valid() {
		return fmt.Errorf("%w: %d", model.ErrInvalidLabel, int(label))
	}

	cycle := l.st.Cycle() + 1
	s := l.st.SettingsAt(cycle)
	ev := l.event(recordID, label, model.OriginOracle, cycle, s, false)
	wasRunning := l.phase == PhaseRunning
	if err := l.append([]model.LabelEvent{ev}); err != nil {
		return err
	}
	if wasRunning {
		l.evaluateStop(ctx)
	}
	return l.persistDue(ctx)
}

// UndoLastBatch removes the last labeling batch, persists the state and
// re-enters RUNNING.
func (l *Loop) UndoLastBatch(ctx context.Context) ([]model.LabelEvent, error) {
	if l.phase == PhaseSeeding {
		return nil, ErrNotSeeded
	}
	removed, err := l.st.UndoLastBatch()
	if err != nil {
		return nil, err
	}
	for _, ev := range removed {
		l.labels.Unset(ev.RecordID)
	}
	l.phase = PhaseRunning
	if l.labels.Remaining() == 0 {
		l.phase = PhaseStopped
	}
	metrics.RecordUndo()
	l.log.Info(ctx, "batch undone",
		logger.Int("cycle", l.st.Cycle()+1),
		logger.Int("removed", len(removed)),
	)
	l.unsaved = true
	if err := l.Flush(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

// SwitchModels schedules new settings from the next cycle on. Invalid
// settings are rejected and nothing changes.
func (l *Loop) SwitchModels(s model.Settings) error {
	if _, err := l.reg.Build(s); err != nil {
		return err
	}
	if l.st == nil {
		l.settings = s.Clone()
		return nil
	}
	l.st.ChangeSettings(s)
	l.unsaved = true
	return nil
}

// ensureModels rebuilds the role implementations when s differs from the
// settings they were built for.
func (l *Loop) ensureModels(s model.Settings) error {
	if reflect.DeepEqual(s, l.builtFor) {
		return nil
	}
	m, err := l.reg.Build(s)
	if err != nil {
		return err
	}
	l.models = m
	l.builtFor = s.Clone()
	return nil
}

func (l *Loop) event(id int, label model.Label, origin model.Origin, cycle int, s model.Settings, trained bool) model.LabelEvent {
	return model.LabelEvent{
		RecordID:         id,
		Label:            label,
		Origin:           origin,
		Cycle:            cycle,
		Timestamp:        l.opts.clock().UTC(),
		QueryStrategy:    s.Query.Name,
		Classifier:       s.Classifier.Name,
		FeatureExtractor: s.Feature.Name,
		BalanceStrategy:  s.Balance.Name,
		Trained:          trained,
	}
}

// append adds a batch to the state and the label view.
func (l *Loop) append(batch []model.LabelEvent) error {
	if err := l.st.AppendBatch(batch); err != nil {
		return err
	}
	for _, ev := range batch {
		// The state accepted the batch, so every id is new and valid.
		_ = l.labels.Set(ev.RecordID, ev.Label)
		metrics.RecordLabelAppended(ev.Origin.String(), ev.Label.String())
	}
	if l.labels.Remaining() == 0 {
		l.phase = PhaseStopped
	}
	return nil
}

func (l *Loop) evaluateStop(ctx context.Context) {
	if l.phase == PhaseRunning && l.opts.stop.Done(l.Progress(), l.labels.IsLabeled) {
		l.phase = PhaseStopped
	}
	if l.phase == PhaseStopped {
		l.log.Info(ctx, "review stopped",
			logger.String("rule", l.opts.stop.Name()),
			logger.Int("cycle", l.st.Cycle()),
			logger.Int("labeled", l.labels.Count()),
			logger.Int("relevant", l.labels.Relevant()),
		)
	}
}
