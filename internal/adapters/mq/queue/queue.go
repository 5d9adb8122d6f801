// Package queue carries reviewer answers from an input source to the oracle.
//
// Answers are delivered in the order they were enqueued.
package queue

import (
	"context"
	"sync"

	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Queue provides non-blocking enqueue and blocking, ordered receive.
type Queue interface {
	// Enqueue adds an answer to the queue.
	// Returns false if the queue is full or closed and the answer was dropped.
	Enqueue(ctx context.Context, a model.Answer) bool

	// Next blocks until an answer is available, ctx is done or the queue is
	// closed and drained (ErrClosed).
	Next(ctx context.Context) (model.Answer, error)

	// Len returns the current number of queued answers.
	Len() int

	// Close stops accepting answers. Pending answers can still be received.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	answers  chan model.Answer
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.answers = make(chan model.Answer, q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an answer to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a model.Answer) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.answers <- a:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.answers))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Next receives the oldest pending answer.
func (q *InMemoryQueue) Next(ctx context.Context) (model.Answer, error) {
	select {
	case a, ok := <-q.answers:
		if !ok {
			return model.Answer{}, ErrClosed
		}
		metrics.RecordQueueDequeue()
		metrics.UpdateQueueSize(len(q.answers))
		return a, nil
	case <-ctx.Done():
		return model.Answer{}, ctx.Err()
	}
}

// Len returns the current number of queued answers.
func (q *InMemoryQueue) Len() int {
	size := len(q.answers)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.answers)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
