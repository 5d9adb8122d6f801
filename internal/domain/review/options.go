package review

import (
	"context"
	"time"

	"github.com/okian/alscreen/internal/domain/classifier"
	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/state"
	"github.com/okian/alscreen/pkg/logger"
)

// Oracle supplies the label of a record. Interactive oracles may block.
type Oracle interface {
	Label(ctx context.Context, recordID int) (model.Label, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, recordID int) (model.Label, error)

// Label implements Oracle.
func (f OracleFunc) Label(ctx context.Context, recordID int) (model.Label, error) {
	return f(ctx, recordID)
}

// Scorer scores feature rows with a trained model.
type Scorer interface {
	Score(ctx context.Context, m classifier.Model, X feature.Matrix) ([]float64, error)
}

type directScorer struct{}

func (directScorer) Score(ctx context.Context, m classifier.Model, X feature.Matrix) ([]float64, error) {
	return m.PredictProba(ctx, X)
}

// Saver persists the review state.
type Saver interface {
	Save(ctx context.Context, st *state.State) error
}

type options struct {
	oracle        Oracle
	saver         Saver
	writeInterval int
	stop          StopRule
	log           logger.Logger
	clock         func() time.Time
	scorer        Scorer
	skipBad       bool
	cache         *feature.Cache
}

// Option applies a configuration option to a Loop.
type Option func(*options)

// WithOracle sets the label source.
func WithOracle(o Oracle) Option {
	return func(opts *options) {
		if o != nil {
			opts.oracle = o
		}
	}
}

// WithSaver persists the state through s.
func WithSaver(s Saver) Option {
	return func(opts *options) {
		if s != nil {
			opts.saver = s
		}
	}
}

// WithWriteInterval persists after every k-th cycle. Zero persists only when
// the loop stops or Run returns.
func WithWriteInterval(k int) Option {
	return func(opts *options) {
		if k >= 0 {
			opts.writeInterval = k
		}
	}
}

// WithStopRule sets the stop rule. Exhaustion always stops as well.
func WithStopRule(r StopRule) Option {
	return func(opts *options) {
		if r != nil {
			opts.stop = r
		}
	}
}

// WithLogger sets the loop logger.
func WithLogger(l logger.Logger) Option {
	return func(opts *options) {
		if l != nil {
			opts.log = l
		}
	}
}

// WithClock sets the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		if now != nil {
			opts.clock = now
		}
	}
}

// WithScorer sets how unlabeled rows are scored, e.g. a worker pool.
func WithScorer(s Scorer) Option {
	return func(opts *options) {
		if s != nil {
			opts.scorer = s
		}
	}
}

// WithSkipUnextractable featurizes records the extractor rejects as zero
// vectors instead of failing the cycle.
func WithSkipUnextractable(skip bool) Option {
	return func(opts *options) {
		opts.skipBad = skip
	}
}

// WithFeatureCache shares a feature cache with the loop.
func WithFeatureCache(c *feature.Cache) Option {
	return func(opts *options) {
		if c != nil {
			opts.cache = c
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		stop:   Exhausted(),
		log:    logger.Nop(),
		clock:  time.Now,
		scorer: directScorer{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil {
		o.cache = feature.NewCache()
	}
	return o
}
