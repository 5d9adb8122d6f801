// Package synth generates seeded, fully labeled corpora for simulations,
// tests and demos.
package synth

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/seed"
)

// Default generator configuration constants.
const (
	defaultRecords   = 100
	defaultRelevant  = 10
	titleWords       = 6
	abstractWords    = 40
	topicShare       = 0.35 // share of words drawn from the record's topic
	embeddingNoise   = 0.6
	relevantCentroid = 1.0
)

var (
	relevantTopic = []string{
		"active", "learning", "screening", "systematic", "review", "classifier",
		"relevance", "citation", "abstract", "prioritization", "recall", "oracle",
	}
	irrelevantTopic = []string{
		"protein", "folding", "galaxy", "telescope", "soil", "erosion",
		"turbine", "blade", "sediment", "glacier", "enzyme", "orbit",
	}
	commonWords = []string{
		"the", "study", "method", "results", "data", "analysis", "we", "propose",
		"model", "approach", "evaluation", "present", "paper", "novel", "using",
	}
)

// Config controls the generated corpus.
type Config struct {
	Name     string // corpus name; derived from the seed when empty
	Records  int
	Relevant int
	Seed     int64
	Dim      int // width of pre-embedded vectors; 0 generates none
}

// DefaultConfig returns a 100 record corpus with 10 relevant records.
func DefaultConfig() Config {
	return Config{Records: defaultRecords, Relevant: defaultRelevant, Seed: 1}
}

// Records generates the records of cfg. The same config always yields the
// same records.
func Records(ctx context.Context, cfg Config) ([]model.Record, error) {
	if cfg.Records <= 0 {
		return nil, fmt.Errorf("synth: records must be positive, got %d", cfg.Records)
	}
	if cfg.Relevant < 0 || cfg.Relevant > cfg.Records {
		return nil, fmt.Errorf("synth: relevant must be within [0, %d], got %d", cfg.Records, cfg.Relevant)
	}

	rng := seed.New(cfg.Seed)
	relevant := make(map[int]bool, cfg.Relevant)
	for _, id := range rng.Perm(cfg.Records)[:cfg.Relevant] {
		relevant[id] = true
	}

	records := make([]model.Record, cfg.Records)
	for i := range records {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("synth: %w", err)
			}
		}
		topic, label := irrelevantTopic, model.Irrelevant
		if relevant[i] {
			topic, label = relevantTopic, model.Relevant
		}
		r := model.Record{
			ID:       i,
			Title:    sentence(rng, topic, titleWords),
			Abstract: sentence(rng, topic, abstractWords),
			Truth:    model.LabelPtr(label),
		}
		if cfg.Dim > 0 {
			r.Vector = embedding(rng, cfg.Dim, relevant[i])
		}
		records[i] = r
	}
	return records, nil
}

// New generates a corpus for cfg.
func New(ctx context.Context, cfg Config) (*corpus.Corpus, error) {
	records, err := Records(ctx, cfg)
	if err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = "synth-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(strconv.FormatInt(cfg.Seed, 10))).String()
	}
	return corpus.New(name, records)
}

func sentence(rng *rand.Rand, topic []string, n int) string {
	words := make([]string, n)
	for i := range words {
		if rng.Float64() < topicShare {
			words[i] = topic[rng.Intn(len(topic))]
		} else {
			words[i] = commonWords[rng.Intn(len(commonWords))]
		}
	}
	return strings.Join(words, " ")
}

func embedding(rng *rand.Rand, dim int, relevant bool) []float64 {
	v := make([]float64, dim)
	centre := -relevantCentroid
	if relevant {
		centre = relevantCentroid
	}
	for j := range v {
		v[j] = rng.NormFloat64() * embeddingNoise
	}
	v[0] += centre
	return v
}
