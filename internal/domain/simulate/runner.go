// Package simulate replays a review against a fully labeled corpus: the
// ground truth plays the oracle and the finished label order is scored with
// the usual screening metrics.
package simulate

import (
	"context"
	"sync"
	"time"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/registry"
	"github.com/okian/alscreen/internal/domain/review"
	"github.com/okian/alscreen/internal/domain/state"
	"github.com/okian/alscreen/pkg/logger"
)

// Runner runs one simulation.
type Runner struct {
	corpus   *corpus.Corpus
	reg      *registry.Registry
	settings model.Settings

	priors        review.PriorSpec
	stop          review.StopRule
	writeInterval int
	store         review.Saver
	resume        *state.State
	log           logger.Logger
	clock         func() time.Time
	scorer        review.Scorer
	skipBad       bool

	mu     sync.Mutex
	oracle *GroundTruth
	loop   *review.Loop
}

// New creates a runner. Nothing is validated until Run.
func New(c *corpus.Corpus, reg *registry.Registry, s model.Settings, opts ...Option) *Runner {
	r := &Runner{
		corpus:   c,
		reg:      reg,
		settings: s.Clone(),
		stop:     review.Exhausted(),
		log:      logger.Nop(),
		oracle:   NewGroundTruth(c),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run seeds or resumes the review and drives it until it stops. The state is
// persisted per the write interval and always once more on return.
func (r *Runner) Run(ctx context.Context) error {
	loopOpts := []review.Option{
		review.WithOracle(r.oracle),
		review.WithStopRule(r.stop),
		review.WithWriteInterval(r.writeInterval),
		review.WithSaver(r.store),
		review.WithLogger(r.log),
		review.WithClock(r.clock),
		review.WithScorer(r.scorer),
		review.WithSkipUnextractable(r.skipBad),
	}

	var (
		loop *review.Loop
		err  error
	)
	if r.resume != nil {
		loop, err = review.Resume(r.corpus, r.reg, r.resume, loopOpts...)
		if err != nil {
			return err
		}
	} else {
		loop, err = review.New(r.corpus, r.reg, r.settings, loopOpts...)
		if err != nil {
			return err
		}
		if err := loop.Seed(ctx, r.priors); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.loop = loop
	r.mu.Unlock()

	start := time.Now()
	if err := loop.Run(ctx); err != nil {
		return err
	}

	p := loop.Progress()
	r.log.Info(ctx, "simulation finished",
		logger.String("project", loop.State().ProjectID()),
		logger.Int("cycles", p.Cycle),
		logger.Int("labeled", p.Labeled),
		logger.Int("relevant", p.Relevant),
		logger.Int("queries", r.oracle.Queries()),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Loop returns the underlying review loop, nil before Run.
func (r *Runner) Loop() *review.Loop {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loop
}

// Report evaluates the label order reached so far.
func (r *Runner) Report() (Report, error) {
	loop := r.Loop()
	if loop == nil || loop.State() == nil {
		return Report{}, ErrNotStarted
	}
	return Evaluate(loop.State(), r.corpus)
}
