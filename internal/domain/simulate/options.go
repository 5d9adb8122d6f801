package simulate

import (
	"time"

	"github.com/okian/alscreen/internal/domain/review"
	"github.com/okian/alscreen/internal/domain/state"
	"github.com/okian/alscreen/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithPriors sets the prior knowledge to seed with.
func WithPriors(p review.PriorSpec) Option {
	return func(r *Runner) {
		r.priors = p
	}
}

// WithStopRule sets when the simulation ends. Defaults to exhaustion.
func WithStopRule(s review.StopRule) Option {
	return func(r *Runner) {
		if s != nil {
			r.stop = s
		}
	}
}

// WithWriteInterval persists the state after every k-th cycle. Zero writes
// only when the simulation ends.
func WithWriteInterval(k int) Option {
	return func(r *Runner) {
		if k >= 0 {
			r.writeInterval = k
		}
	}
}

// WithStore persists the state through s.
func WithStore(s review.Saver) Option {
	return func(r *Runner) {
		if s != nil {
			r.store = s
		}
	}
}

// WithResume continues st instead of seeding a new review.
func WithResume(st *state.State) Option {
	return func(r *Runner) {
		r.resume = st
	}
}

// WithLogger sets the runner logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock sets the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.clock = now
		}
	}
}

// WithScorer scores unlabeled rows through s, typically a worker pool.
func WithScorer(s review.Scorer) Option {
	return func(r *Runner) {
		if s != nil {
			r.scorer = s
		}
	}
}

// WithSkipUnextractable featurizes records the extractor rejects as zero
// vectors.
func WithSkipUnextractable(skip bool) Option {
	return func(r *Runner) {
		r.skipBad = skip
	}
}
