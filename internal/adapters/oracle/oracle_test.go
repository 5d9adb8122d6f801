package oracle_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/alscreen/internal/adapters/mq/queue"
	"github.com/okian/alscreen/internal/adapters/oracle"
	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/registry"
	"github.com/okian/alscreen/internal/domain/review"
	"github.com/okian/alscreen/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func smallCorpus() *corpus.Corpus {
	c, err := corpus.New("small", []model.Record{
		{ID: 1, Title: "Active learning for screening", Abstract: "We rank abstracts."},
		{ID: 2, Title: "Glacier erosion rates"},
		{ID: 3, Title: "Soil moisture"},
	})
	So(err, ShouldBeNil)
	return c
}

func TestInteractive(t *testing.T) {
	Convey("Given an interactive oracle", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue()
		o := oracle.NewInteractive(smallCorpus(), q)

		Convey("When a stale answer precedes the expected one", func() {
			So(q.Enqueue(ctx, model.Answer{RecordID: 9, Label: model.Irrelevant}), ShouldBeTrue)
			So(q.Enqueue(ctx, model.Answer{RecordID: 1, Label: model.Relevant}), ShouldBeTrue)
			label, err := o.Label(ctx, 1)

			Convey("Then the stale answer should be skipped", func() {
				So(err, ShouldBeNil)
				So(label, ShouldEqual, model.Relevant)
				p := <-o.Prompts()
				So(p.Record.ID, ShouldEqual, 1)
			})
		})

		Convey("When the record is not in the corpus", func() {
			_, err := o.Label(ctx, 42)
			So(errors.Is(err, oracle.ErrUnknownRecord), ShouldBeTrue)
		})

		Convey("When no answer arrives in time", func() {
			tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err := o.Label(tctx, 2)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("When the answer queue is closed", func() {
			So(q.Close(), ShouldBeNil)
			_, err := o.Label(ctx, 2)
			So(errors.Is(err, queue.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestConsole(t *testing.T) {
	Convey("Given a console fed by a scripted reviewer", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue()
		o := oracle.NewInteractive(smallCorpus(), q)
		var out bytes.Buffer
		console := oracle.NewConsole(strings.NewReader("maybe\ny\nno\n"), &out, q)
		done := make(chan error, 1)
		go func() { done <- console.Run(ctx, o.Prompts()) }()

		Convey("When the loop asks three questions", func() {
			first, err1 := o.Label(ctx, 1)
			second, err2 := o.Label(ctx, 2)
			_, err3 := o.Label(ctx, 3)
			runErr := <-done

			Convey("Then the answers should arrive in order until the input ends", func() {
				So(err1, ShouldBeNil)
				So(first, ShouldEqual, model.Relevant)
				So(err2, ShouldBeNil)
				So(second, ShouldEqual, model.Irrelevant)
				So(errors.Is(err3, queue.ErrClosed), ShouldBeTrue)
				So(errors.Is(runErr, oracle.ErrQuit), ShouldBeTrue)
			})

			Convey("Then the reviewer should see the records and a retry hint", func() {
				text := out.String()
				So(text, ShouldContainSubstring, "[1] Active learning for screening")
				So(text, ShouldContainSubstring, "We rank abstracts.")
				So(text, ShouldContainSubstring, "please answer")
			})
		})
	})

	Convey("Given a review driven from the console", t, func() {
		ctx := context.Background()
		c, err := synth.New(ctx, synth.Config{Records: 12, Relevant: 3, Seed: 5})
		So(err, ShouldBeNil)
		q := queue.NewInMemoryQueue()
		o := oracle.NewInteractive(c, q)
		console := oracle.NewConsole(strings.NewReader("n\ny\nq\n"), &bytes.Buffer{}, q)
		done := make(chan error, 1)
		go func() { done <- console.Run(ctx, o.Prompts()) }()

		s := model.Settings{
			Classifier: model.RoleConfig{Name: "nb"},
			Query:      model.RoleConfig{Name: "max"},
			Balance:    model.RoleConfig{Name: "simple"},
			Feature:    model.RoleConfig{Name: "tfidf"},
			Seed:       1,
			NInstances: 1,
		}
		l, err := review.New(c, registry.Default(), s, review.WithOracle(o))
		So(err, ShouldBeNil)
		So(l.Seed(ctx, review.PriorSpec{NIncluded: 1, NExcluded: 1}), ShouldBeNil)

		Convey("When the reviewer quits after two answers", func() {
			err := l.Run(ctx)
			So(errors.Is(<-done, oracle.ErrQuit), ShouldBeTrue)

			Convey("Then the answered cycles should be kept", func() {
				So(errors.Is(err, queue.ErrClosed), ShouldBeTrue)
				So(l.State().Cycle(), ShouldEqual, 2)
				events := l.State().Events()
				So(events[2].Label, ShouldEqual, model.Irrelevant)
				So(events[3].Label, ShouldEqual, model.Relevant)
			})
		})
	})
}
