package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/okian/alscreen/internal/adapters/dataset"
	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given an output path", t, func() {
		ctx := context.Background()
		out := filepath.Join(t.TempDir(), "corpus.tsv")
		var stdout, stderr bytes.Buffer

		convey.Convey("When generating a corpus", func() {
			code := run(ctx, []string{"-out", out, "-records", "30", "-relevant", "4", "-seed", "8"}, &stdout, &stderr)

			convey.Convey("Then the dataset should load back", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "wrote 30 records (4 relevant)")
				c, err := dataset.Load(ctx, out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(c.Len(), convey.ShouldEqual, 30)
				convey.So(c.HasTruth(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When more relevant records than records are asked for", func() {
			code := run(ctx, []string{"-out", out, "-records", "3", "-relevant", "4"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 1)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "failed to generate corpus")
		})

		convey.Convey("When the extension is unsupported", func() {
			code := run(ctx, []string{"-out", filepath.Join(t.TempDir(), "c.json")}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 1)
		})
	})
}
