// Package oracle provides label sources for reviews driven by a person.
//
// The Interactive oracle publishes every record the loop asks about as a
// prompt and blocks until the matching answer arrives on an answer queue.
// Any front end that reads prompts and enqueues answers can drive it; Console
// is the terminal one.
package oracle

import (
	"context"
	"fmt"

	"github.com/okian/alscreen/internal/adapters/mq/queue"
	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/pkg/logger"
)

// Prompt asks for the label of one record.
type Prompt struct {
	Record model.Record
}

// Interactive is a review.Oracle backed by a prompt channel and an answer queue.
type Interactive struct {
	corpus  *corpus.Corpus
	answers queue.Queue
	prompts chan Prompt
	buffer  int
	log     logger.Logger
}

// NewInteractive creates an oracle over c that reads answers from q.
func NewInteractive(c *corpus.Corpus, q queue.Queue, opts ...Option) *Interactive {
	o := &Interactive{
		corpus:  c,
		answers: q,
		buffer:  1,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.prompts = make(chan Prompt, o.buffer)
	return o
}

// Prompts returns the channel prompts are published on.
func (o *Interactive) Prompts() <-chan Prompt { return o.prompts }

// Label publishes a prompt for recordID and waits for its answer. Answers for
// other records are stale and dropped.
func (o *Interactive) Label(ctx context.Context, recordID int) (model.Label, error) {
	rec, ok := o.corpus.Record(recordID)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownRecord, recordID)
	}
	if o.answers.IsClosed() && o.answers.Len() == 0 {
		return 0, queue.ErrClosed
	}

	select {
	case o.prompts <- Prompt{Record: rec}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	for {
		a, err := o.answers.Next(ctx)
		if err != nil {
			return 0, err
		}
		if a.RecordID != recordID {
			o.log.Warn(ctx, "dropping stale answer",
				logger.Int("want", recordID),
				logger.Int("got", a.RecordID),
			)
			continue
		}
		if !a.Label.Valid() {
			return 0, fmt.Errorf("%w: record %d", model.ErrInvalidLabel, recordID)
		}
		return a.Label, nil
	}
}
