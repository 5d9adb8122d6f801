package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	service "github.com/okian/alscreen/internal/app"
	"github.com/okian/alscreen/internal/config"
	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/simulate"
	"github.com/okian/alscreen/internal/domain/state"
	"github.com/okian/alscreen/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedClock() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

func testCorpus() *corpus.Corpus {
	c, err := synth.New(context.Background(), synth.Config{Records: 60, Relevant: 6, Seed: 42})
	So(err, ShouldBeNil)
	return c
}

func testConfig(dir, stateFile string) *config.Config {
	cfg := config.New()
	cfg.StatePath = filepath.Join(dir, stateFile)
	cfg.QueryStrategy = "max"
	cfg.NInstances = 1
	cfg.NPriorIncluded = 1
	cfg.NPriorExcluded = 1
	cfg.Seed = 42
	cfg.Workers = 2
	return cfg
}

func TestService_Simulate(t *testing.T) {
	Convey("Given a service over a labeled corpus", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cfg := testConfig(dir, "state.json")
		cfg.StopRule = config.StopAllRelevant
		cfg.ReportPath = filepath.Join(dir, "report.json")
		svc := service.New(cfg, service.WithCorpus(testCorpus()), service.WithClock(fixedClock))

		Convey("When running a simulation", func() {
			rep, err := svc.Simulate(ctx)
			So(err, ShouldBeNil)

			Convey("Then every relevant record should be found", func() {
				So(rep.Relevant, ShouldEqual, 5)
				So(rep.Found, ShouldEqual, 5)
				stats := svc.GetStats()
				So(stats["phase"], ShouldEqual, "stopped")
				So(stats["relevantFound"], ShouldEqual, 5)
				So(stats["running"], ShouldEqual, 0)
			})

			Convey("Then the report should be written as JSON", func() {
				data, err := os.ReadFile(cfg.ReportPath)
				So(err, ShouldBeNil)
				var onDisk simulate.Report
				So(json.Unmarshal(data, &onDisk), ShouldBeNil)
				So(onDisk.Found, ShouldEqual, rep.Found)
			})

			Convey("Then the saved state should report the same", func() {
				again, err := svc.Report(ctx)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, rep)
			})

			Convey("Then undo should drop the last batch", func() {
				removed, err := svc.Undo(ctx)
				So(err, ShouldBeNil)
				So(removed, ShouldHaveLength, 1)
				after, err := svc.Report(ctx)
				So(err, ShouldBeNil)
				So(after.Read, ShouldEqual, rep.Read-1)
				So(after.Found, ShouldEqual, rep.Found-1)
			})
		})
	})

	Convey("Given a simulation stopped early and a SQLite state", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		c := testCorpus()
		cfg := testConfig(dir, "state.db")
		cfg.StopRule = config.StopMaxCycles
		cfg.StopValue = 3
		cfg.WriteInterval = 1
		_, err := service.New(cfg, service.WithCorpus(c), service.WithClock(fixedClock)).Simulate(ctx)
		So(err, ShouldBeNil)

		Convey("When resuming with a later stop", func() {
			cfg.Resume = true
			cfg.StopValue = 6
			rep, err := service.New(cfg, service.WithCorpus(c), service.WithClock(fixedClock)).Simulate(ctx)

			Convey("Then the review should continue where it was", func() {
				So(err, ShouldBeNil)
				So(rep.Cycles, ShouldEqual, 6)
				So(rep.Read, ShouldEqual, 6)
			})
		})

		Convey("When starting over without deleting the saved review", func() {
			cfg.StopValue = 1
			svc := service.New(cfg, service.WithCorpus(c))
			_, err := svc.Simulate(ctx)

			Convey("Then the saved review should be kept", func() {
				So(errors.Is(err, service.ErrStateExists), ShouldBeTrue)
				rep, err := svc.Report(ctx)
				So(err, ShouldBeNil)
				So(rep.Cycles, ShouldEqual, 3)
			})
		})

		Convey("When the cycle cap is lower than the stop rule", func() {
			svc := service.New(cfg, service.WithCorpus(c))
			So(svc.Delete(ctx), ShouldBeNil)
			cfg.StopValue = 10
			cfg.NQueries = 2
			rep, err := svc.Simulate(ctx)
			So(err, ShouldBeNil)
			So(rep.Cycles, ShouldEqual, 2)
		})
	})

	Convey("Given two simulations on the same state path", t, func() {
		ctx := context.Background()
		cfg := testConfig(t.TempDir(), "state.json")
		cfg.StopRule = config.StopMaxCycles
		cfg.StopValue = 2
		svc := service.New(cfg, service.WithCorpus(testCorpus()))

		Convey("Then only the first should create the review", func() {
			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = svc.Simulate(ctx)
				}(i)
			}
			wg.Wait()

			var ok, exists int
			for _, err := range errs {
				switch {
				case err == nil:
					ok++
				case errors.Is(err, service.ErrStateExists):
					exists++
				}
			}
			So(ok, ShouldEqual, 1)
			So(exists, ShouldEqual, 1)
		})
	})
}

func TestService_Oracle(t *testing.T) {
	Convey("Given a reviewer at the console", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cfg := testConfig(dir, "state.json")
		var out bytes.Buffer
		svc := service.New(cfg,
			service.WithCorpus(testCorpus()),
			service.WithConsole(strings.NewReader("y\nn\nq\n"), &out),
		)

		Convey("When they answer twice and quit", func() {
			err := svc.Oracle(ctx)

			Convey("Then both answers should be saved", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "relevant? [y/n/q]")
				rep, err := svc.Report(ctx)
				So(err, ShouldBeNil)
				So(rep.Cycles, ShouldEqual, 2)
				So(rep.Read, ShouldEqual, 2)
			})
		})

		Convey("When they come back to the saved review", func() {
			So(svc.Oracle(ctx), ShouldBeNil)
			cfg.Resume = true
			again := service.New(cfg,
				service.WithCorpus(testCorpus()),
				service.WithConsole(strings.NewReader("n\nq\n"), &bytes.Buffer{}),
			)
			So(again.Oracle(ctx), ShouldBeNil)

			Convey("Then labeling should continue in the next cycle", func() {
				rep, err := again.Report(ctx)
				So(err, ShouldBeNil)
				So(rep.Cycles, ShouldEqual, 3)
			})
		})
	})
}

func TestService_Errors(t *testing.T) {
	Convey("Given a service without a dataset", t, func() {
		cfg := testConfig(t.TempDir(), "state.json")
		svc := service.New(cfg)
		_, err := svc.Simulate(context.Background())
		So(errors.Is(err, service.ErrNoDataset), ShouldBeTrue)
	})

	Convey("Given a service without a saved state", t, func() {
		ctx := context.Background()
		cfg := testConfig(t.TempDir(), "state.json")
		svc := service.New(cfg, service.WithCorpus(testCorpus()))

		_, err := svc.Undo(ctx)
		So(errors.Is(err, service.ErrNoState), ShouldBeTrue)
		_, err = svc.Report(ctx)
		So(errors.Is(err, service.ErrNoState), ShouldBeTrue)
	})

	Convey("Given a review with no batch to undo", t, func() {
		ctx := context.Background()
		cfg := testConfig(t.TempDir(), "state.json")
		cfg.StopRule = config.StopMaxCycles
		cfg.StopValue = 1
		svc := service.New(cfg, service.WithCorpus(testCorpus()))
		_, err := svc.Simulate(ctx)
		So(err, ShouldBeNil)

		_, err = svc.Undo(ctx)
		So(err, ShouldBeNil)
		_, err = svc.Undo(ctx)
		So(errors.Is(err, state.ErrNothingToUndo), ShouldBeTrue)
	})
}

func TestService_Delete(t *testing.T) {
	Convey("Given a saved review", t, func() {
		ctx := context.Background()
		cfg := testConfig(t.TempDir(), "state.db")
		cfg.StopRule = config.StopMaxCycles
		cfg.StopValue = 2
		svc := service.New(cfg, service.WithCorpus(testCorpus()))
		_, err := svc.Simulate(ctx)
		So(err, ShouldBeNil)

		Convey("When deleting it", func() {
			So(svc.Delete(ctx), ShouldBeNil)

			Convey("Then nothing should be left to report or delete", func() {
				_, err := svc.Report(ctx)
				So(errors.Is(err, service.ErrNoState), ShouldBeTrue)
				So(errors.Is(svc.Delete(ctx), service.ErrNoState), ShouldBeTrue)
				_, ok := svc.GetStats()["project"]
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestService_AllRelevantNeedsTruth(t *testing.T) {
	Convey("Given the all_relevant stop rule", t, func() {
		ctx := context.Background()
		cfg := testConfig(t.TempDir(), "state.json")
		cfg.StopRule = config.StopAllRelevant

		Convey("When reviewing interactively", func() {
			svc := service.New(cfg,
				service.WithCorpus(testCorpus()),
				service.WithConsole(strings.NewReader("y\n"), &bytes.Buffer{}),
			)
			err := svc.Oracle(ctx)

			Convey("Then it should be refused before any prior is seeded", func() {
				So(errors.Is(err, service.ErrStopNeedsTruth), ShouldBeTrue)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
				_, err := svc.Report(ctx)
				So(errors.Is(err, service.ErrNoState), ShouldBeTrue)
			})
		})

		Convey("When simulating over a dataset without labels", func() {
			records := make([]model.Record, 20)
			for i := range records {
				records[i] = model.Record{ID: i, Title: fmt.Sprintf("record %d", i), Abstract: "unscreened"}
			}
			c, err := corpus.New("unlabeled", records)
			So(err, ShouldBeNil)
			cfg.PriorIncluded = []int{0}
			cfg.PriorExcluded = []int{1}
			_, err = service.New(cfg, service.WithCorpus(c)).Simulate(ctx)

			Convey("Then it should be refused", func() {
				So(errors.Is(err, service.ErrStopNeedsTruth), ShouldBeTrue)
			})
		})
	})
}
