// Package dataset reads and writes corpora as delimited text files.
//
// A dataset has a header row. Recognized columns (case-insensitive) are
// record_id, title, abstract, a label column (included, label_included,
// final_included or label) and vector, a space separated list of floats.
// Rows without an id are numbered by their position. Empty or -1 labels
// mean the record has no ground truth.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
)

var columnAliases = map[string][]string{
	"id":       {"record_id", "id"},
	"title":    {"title", "primary_title"},
	"abstract": {"abstract", "notes_abstract"},
	"label":    {"included", "label_included", "final_included", "label"},
	"vector":   {"vector"},
}

// header maps a logical column to its index, -1 when absent.
type header map[string]int

func parseHeader(row []string) (header, error) {
	index := make(map[string]int, len(row))
	for i, name := range row {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformed, name)
		}
		index[name] = i
	}
	h := make(header, len(columnAliases))
	for col, aliases := range columnAliases {
		h[col] = -1
		for _, a := range aliases {
			if i, ok := index[a]; ok {
				h[col] = i
				break
			}
		}
	}
	if h["title"] < 0 && h["abstract"] < 0 && h["vector"] < 0 {
		return nil, fmt.Errorf("%w: need a title, abstract or vector column", ErrMalformed)
	}
	return h, nil
}

func (h header) field(row []string, col string) string {
	i := h[col]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Load reads the dataset at path. The corpus is named after the file.
func Load(ctx context.Context, path string) (*corpus.Corpus, error) {
	comma, err := delimiter(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return read(ctx, name, f, comma)
}

// Read parses a comma separated dataset from r.
func Read(ctx context.Context, name string, r io.Reader) (*corpus.Corpus, error) {
	return read(ctx, name, r, ',')
}

func read(ctx context.Context, name string, r io.Reader, comma rune) (*corpus.Corpus, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no header", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	h, err := parseHeader(first)
	if err != nil {
		return nil, err
	}

	var records []model.Record
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		rec, err := h.record(row, len(records))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		records = append(records, rec)
	}
	return corpus.New(name, records)
}

func (h header) record(row []string, position int) (model.Record, error) {
	rec := model.Record{
		ID:       position,
		Title:    h.field(row, "title"),
		Abstract: h.field(row, "abstract"),
	}
	if s := h.field(row, "id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return rec, fmt.Errorf("record id %q: %w", s, err)
		}
		rec.ID = id
	}
	label, err := parseLabel(h.field(row, "label"))
	if err != nil {
		return rec, err
	}
	rec.Truth = label
	if s := h.field(row, "vector"); s != "" {
		parts := strings.Fields(s)
		rec.Vector = make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return rec, fmt.Errorf("vector value %q: %w", p, err)
			}
			rec.Vector[i] = v
		}
	}
	return rec, nil
}

func parseLabel(s string) (*model.Label, error) {
	switch strings.ToLower(s) {
	case "", "-1", "nan":
		return nil, nil
	case "1", "1.0", "relevant", "yes", "y", "true":
		return model.LabelPtr(model.Relevant), nil
	case "0", "0.0", "irrelevant", "no", "n", "false":
		return model.LabelPtr(model.Irrelevant), nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrInvalidLabel, s)
}

// Write writes records as a comma separated dataset. The vector column is
// written only when some record carries one.
func Write(w io.Writer, records []model.Record) error {
	return write(w, records, ',')
}

// WriteFile writes the corpus to path, replacing any existing file.
func WriteFile(path string, c *corpus.Corpus) error {
	comma, err := delimiter(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := write(f, c.Records(), comma); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func write(w io.Writer, records []model.Record, comma rune) error {
	vectors := false
	for _, r := range records {
		if len(r.Vector) > 0 {
			vectors = true
			break
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = comma
	head := []string{"record_id", "title", "abstract", "included"}
	if vectors {
		head = append(head, "vector")
	}
	if err := cw.Write(head); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{strconv.Itoa(r.ID), r.Title, r.Abstract, formatLabel(r.Truth)}
		if vectors {
			vals := make([]string, len(r.Vector))
			for i, v := range r.Vector {
				vals[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			row = append(row, strings.Join(vals, " "))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatLabel(l *model.Label) string {
	switch {
	case l == nil || !l.Valid():
		return ""
	case *l == model.Relevant:
		return "1"
	default:
		return "0"
	}
}

func delimiter(path string) (rune, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ',', nil
	case ".tsv", ".tab":
		return '\t', nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}
