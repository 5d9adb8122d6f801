package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/alscreen/internal/adapters/dataset"
	"github.com/okian/alscreen/internal/synth"
	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given a dataset and a state path in the environment", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		c, err := synth.New(ctx, synth.Config{Records: 40, Relevant: 5, Seed: 11})
		convey.So(err, convey.ShouldBeNil)
		data := filepath.Join(dir, "papers.csv")
		convey.So(dataset.WriteFile(data, c), convey.ShouldBeNil)

		t.Setenv("ALSCREEN_CONFIG", "")
		t.Setenv("ALSCREEN_DATASET", data)
		t.Setenv("ALSCREEN_STATE_PATH", filepath.Join(dir, "state.json"))
		t.Setenv("ALSCREEN_QUERY_STRATEGY", "max")
		t.Setenv("ALSCREEN_N_INSTANCES", "1")
		t.Setenv("ALSCREEN_N_PRIOR_INCLUDED", "1")
		t.Setenv("ALSCREEN_N_PRIOR_EXCLUDED", "1")
		t.Setenv("ALSCREEN_STOP_RULE", "max_cycles")
		t.Setenv("ALSCREEN_STOP_VALUE", "3")
		t.Setenv("ALSCREEN_LOG_LEVEL", "error")

		var stdout, stderr bytes.Buffer
		exec := func(args ...string) int {
			stdout.Reset()
			stderr.Reset()
			return run(ctx, args, strings.NewReader(""), &stdout, &stderr)
		}

		convey.Convey("When simulating", func() {
			code := exec("simulate")

			convey.Convey("Then it should exit cleanly with a summary", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "cycles:          3")
			})

			convey.Convey("Then report and undo should work on the saved state", func() {
				convey.So(exec("report"), convey.ShouldEqual, exitOK)
				convey.So(stdout.String(), convey.ShouldContainSubstring, `"records_read": 3`)
				convey.So(exec("undo"), convey.ShouldEqual, exitOK)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "cycle 3")
				convey.So(exec("report"), convey.ShouldEqual, exitOK)
				convey.So(stdout.String(), convey.ShouldContainSubstring, `"records_read": 2`)
			})
		})

		convey.Convey("When simulating again over the saved review", func() {
			convey.So(exec("simulate"), convey.ShouldEqual, exitOK)
			convey.So(exec("simulate"), convey.ShouldEqual, exitError)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "already exists")

			convey.Convey("Then deleting it should allow a new review", func() {
				convey.So(exec("delete"), convey.ShouldEqual, exitOK)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "review state deleted")
				convey.So(exec("report"), convey.ShouldEqual, exitError)
				convey.So(exec("simulate"), convey.ShouldEqual, exitOK)
			})
		})

		convey.Convey("When asking for the version", func() {
			convey.So(exec("-V"), convey.ShouldEqual, exitOK)
			convey.So(stdout.String(), convey.ShouldEqual, "alscreen dev\n")
			convey.So(exec("-version"), convey.ShouldEqual, exitOK)
		})

		convey.Convey("When reporting before any review ran", func() {
			convey.So(exec("report"), convey.ShouldEqual, exitError)
		})

		convey.Convey("When the command is unknown", func() {
			convey.So(exec("rank"), convey.ShouldEqual, exitError)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "unknown command")
		})

		convey.Convey("When no command is given", func() {
			convey.So(exec(), convey.ShouldEqual, exitError)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "usage: alscreen")
		})

		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("ALSCREEN_N_INSTANCES", "0")
			convey.So(exec("simulate"), convey.ShouldEqual, exitError)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "failed to load config")
		})
	})
}
