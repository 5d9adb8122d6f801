package oracle

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/okian/alscreen/internal/adapters/mq/queue"
	"github.com/okian/alscreen/internal/domain/model"
)

// Console shows prompts on a terminal and enqueues the reviewer's answers.
type Console struct {
	in      *bufio.Scanner
	out     io.Writer
	answers queue.Queue
}

// NewConsole creates a console reading from in and writing to out.
func NewConsole(in io.Reader, out io.Writer, q queue.Queue) *Console {
	return &Console{in: bufio.NewScanner(in), out: out, answers: q}
}

// Run answers prompts until prompts is closed or ctx is done. It returns
// ErrQuit when the reviewer quits or the input ends. The answer queue is
// closed on return so a waiting oracle sees queue.ErrClosed.
func (c *Console) Run(ctx context.Context, prompts <-chan Prompt) error {
	defer c.answers.Close()
	for {
		var p Prompt
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pr, ok := <-prompts:
			if !ok {
				return nil
			}
			p = pr
		}

		label, err := c.ask(p.Record)
		if err != nil {
			return err
		}
		if !c.answers.Enqueue(ctx, model.Answer{RecordID: p.Record.ID, Label: label}) {
			return fmt.Errorf("answer for record %d dropped: %w", p.Record.ID, queue.ErrClosed)
		}
	}
}

// ask repeats the question until it gets a usable answer.
func (c *Console) ask(r model.Record) (model.Label, error) {
	fmt.Fprintf(c.out, "\n[%d] %s\n", r.ID, r.Title)
	if r.Abstract != "" {
		fmt.Fprintf(c.out, "%s\n", r.Abstract)
	}
	for {
		fmt.Fprint(c.out, "relevant? [y/n/q]: ")
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return 0, err
			}
			return 0, ErrQuit
		}
		label, quit, ok := parseAnswer(c.in.Text())
		switch {
		case quit:
			return 0, ErrQuit
		case ok:
			return label, nil
		}
		fmt.Fprintln(c.out, "please answer y (relevant), n (irrelevant) or q (quit)")
	}
}

func parseAnswer(s string) (label model.Label, quit, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "1", "relevant":
		return model.Relevant, false, true
	case "n", "no", "0", "irrelevant":
		return model.Irrelevant, false, true
	case "q", "quit", "exit":
		return 0, true, false
	}
	return 0, false, false
}
