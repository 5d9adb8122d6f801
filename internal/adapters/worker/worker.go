// Package worker scores feature rows in parallel. Rows are split into
// contiguous chunks and every chunk writes into its own slice of the result,
// so the output never depends on scheduling.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/alscreen/internal/domain/classifier"
	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/pkg/logger"
	"github.com/okian/alscreen/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultChunkSize = 512
)

// task is one chunk of rows [start, end).
type task struct {
	start, end int
}

// Pool fans scoring out to a fixed number of goroutines per call.
type Pool struct {
	workers   int
	chunkSize int
	logger    logger.Logger
}

// NewPool creates a scoring pool. Defaults to one worker per CPU.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		workers:   runtime.NumCPU(),
		chunkSize: defaultChunkSize,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	metrics.UpdateWorkerCount(p.workers)
	return p
}

// Workers returns the configured number of workers.
func (p *Pool) Workers() int { return p.workers }

// Score returns m's relevance probability for every row of X, in row order.
// The first failing chunk cancels the rest and its error is returned.
func (p *Pool) Score(ctx context.Context, m classifier.Model, X feature.Matrix) ([]float64, error) {
	n := X.Len()
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan task)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := p.workers
	if chunks := (n + p.chunkSize - 1) / p.chunkSize; chunks < workers {
		workers = chunks
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for t := range tasks {
				if err := p.run(ctx, m, X, t, out); err != nil {
					metrics.RecordWorkerError()
					metrics.RecordErrorByComponent("worker", "scoring_error")
					p.logger.Error(ctx, "scoring chunk failed",
						logger.Int("worker_id", id),
						logger.Int("start", t.start),
						logger.Int("end", t.end),
						logger.Error(err),
					)
					fail(err)
				}
			}
		}(i)
	}

feed:
	for start := 0; start < n; start += p.chunkSize {
		end := start + p.chunkSize
		if end > n {
			end = n
		}
		select {
		case tasks <- task{start: start, end: end}:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring cancelled: %w", err)
	}
	return out, nil
}

func (p *Pool) run(ctx context.Context, m classifier.Model, X feature.Matrix, t task, out []float64) error {
	if err := ctx.Err(); err != nil {
		return nil
	}
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	scores, err := m.PredictProba(ctx, X.Slice(t.start, t.end))
	if err != nil {
		return fmt.Errorf("score rows %d-%d: %w", t.start, t.end, err)
	}
	if len(scores) != t.end-t.start {
		return fmt.Errorf("score rows %d-%d: %w", t.start, t.end, ErrShortResult)
	}
	copy(out[t.start:t.end], scores)
	return nil
}
