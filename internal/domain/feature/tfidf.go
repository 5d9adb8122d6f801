package feature

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/okian/alscreen/internal/domain/model"
)

// Default tf-idf configuration constants.
const (
	defaultMinDF    = 1
	defaultNgramMax = 1
	maxNgram        = 2
)

// TFIDFOption applies a configuration option to the TFIDF extractor.
type TFIDFOption func(*TFIDF)

// WithMinDF drops terms that occur in fewer than n documents.
func WithMinDF(n int) TFIDFOption {
	return func(t *TFIDF) {
		if n > 0 {
			t.minDF = n
		}
	}
}

// WithNgramMax sets the longest word n-gram, 1 or 2.
func WithNgramMax(n int) TFIDFOption {
	return func(t *TFIDF) {
		if n >= 1 && n <= maxNgram {
			t.ngramMax = n
		}
	}
}

// TFIDF is a bag-of-words extractor with smooth idf weighting and L2
// normalized rows. It ignores the seed.
type TFIDF struct {
	minDF    int
	ngramMax int
}

// NewTFIDF creates a tf-idf extractor.
func NewTFIDF(opts ...TFIDFOption) *TFIDF {
	t := &TFIDF{minDF: defaultMinDF, ngramMax: defaultNgramMax}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Extractor.
func (t *TFIDF) Name() string { return "tfidf" }

// NonNegative implements Extractor.
func (t *TFIDF) NonNegative() bool { return true }

// FitTransform implements Extractor.
func (t *TFIDF) FitTransform(ctx context.Context, records []model.Record, _ int64) (Matrix, error) {
	docs := make([][]string, len(records))
	var empty []int
	for i, r := range records {
		docs[i] = t.terms(r.Text())
		if len(docs[i]) == 0 {
			empty = append(empty, r.ID)
		}
	}
	if err := ctx.Err(); err != nil {
		return Matrix{}, fmt.Errorf("tfidf: %w", err)
	}

	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	vocab := make([]string, 0, len(df))
	for term, n := range df {
		if n >= t.minDF {
			vocab = append(vocab, term)
		}
	}
	sort.Strings(vocab)
	column := make(map[string]int, len(vocab))
	for i, term := range vocab {
		column[term] = i
	}

	n := float64(len(records))
	idf := make([]float64, len(vocab))
	for i, term := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	m := Matrix{Rows: make([]Vector, len(records)), Dim: len(vocab)}
	for i, doc := range docs {
		counts := make(map[int]float64)
		for _, term := range doc {
			if j, ok := column[term]; ok {
				counts[j]++
			}
		}
		idx := make([]int, 0, len(counts))
		for j := range counts {
			idx = append(idx, j)
		}
		sort.Ints(idx)
		vals := make([]float64, len(idx))
		for k, j := range idx {
			vals[k] = counts[j] * idf[j]
		}
		l2normalize(vals)
		m.Rows[i] = Vector{Index: idx, Value: vals}
	}

	if len(empty) > 0 {
		return m, &ExtractionError{Extractor: t.Name(), RecordIDs: empty, Reason: "empty text payload"}
	}
	return m, nil
}

func (t *TFIDF) terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if t.ngramMax < 2 || len(words) < 2 {
		return words
	}
	out := make([]string, 0, 2*len(words)-1)
	out = append(out, words...)
	for i := 0; i+1 < len(words); i++ {
		out = append(out, words[i]+" "+words[i+1])
	}
	return out
}
