package worker

import (
	"github.com/okian/alscreen/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkers sets the number of concurrent scoring workers.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithChunkSize sets the number of rows scored per task.
func WithChunkSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
