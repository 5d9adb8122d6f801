// Command gen-corpus writes a seeded synthetic screening dataset.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/okian/alscreen/internal/adapters/dataset"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/synth"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	def := synth.DefaultConfig()
	fs := flag.NewFlagSet("gen-corpus", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		out      = fs.String("out", "corpus.csv", "Output dataset (.csv or .tsv)")
		name     = fs.String("name", "", "Corpus name (default: derived from the seed)")
		records  = fs.Int("records", def.Records, "Number of records")
		relevant = fs.Int("relevant", def.Relevant, "Number of relevant records")
		seed     = fs.Int64("seed", def.Seed, "Generator seed")
		dim      = fs.Int("dim", 0, "Width of pre-embedded vectors (0 for none)")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	c, err := synth.New(ctx, synth.Config{
		Name:     *name,
		Records:  *records,
		Relevant: *relevant,
		Seed:     *seed,
		Dim:      *dim,
	})
	if err != nil {
		fmt.Fprintln(stderr, "failed to generate corpus: "+err.Error())
		return 1
	}
	if err := dataset.WriteFile(*out, c); err != nil {
		fmt.Fprintln(stderr, "failed to write dataset: "+err.Error())
		return 1
	}
	fmt.Fprintf(stdout, "wrote %d records (%d relevant) to %s, fingerprint %s\n",
		c.Len(), len(c.WithTruth(model.Relevant)), *out, c.Fingerprint())
	return 0
}
