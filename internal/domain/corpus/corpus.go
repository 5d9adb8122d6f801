// Package corpus holds the immutable record corpus and the per-review label
// view over it.
package corpus

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
	"sort"

	"github.com/okian/alscreen/internal/domain/model"
)

// Corpus is an immutable, indexed set of records. It is safe to share one
// Corpus between concurrent reviews.
type Corpus struct {
	name        string
	records     []model.Record
	index       map[int]int
	fingerprint string
}

// Ref identifies a corpus inside a persisted review state.
type Ref struct {
	Name        string `json:"name"`
	Records     int    `json:"records"`
	Fingerprint string `json:"fingerprint"`
}

// New builds a corpus from records. Records are copied and ordered by id;
// ids must be unique and non-negative.
func New(name string, records []model.Record) (*Corpus, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	recs := make([]model.Record, len(records))
	copy(recs, records)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

	idx := make(map[int]int, len(recs))
	for i, r := range recs {
		if r.ID < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidRecordID, r.ID)
		}
		if _, dup := idx[r.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateRecord, r.ID)
		}
		if r.Vector != nil {
			r.Vector = append([]float64(nil), r.Vector...)
		}
		if r.Truth != nil {
			r.Truth = model.LabelPtr(*r.Truth)
		}
		recs[i] = r
		idx[r.ID] = i
	}

	return &Corpus{
		name:        name,
		records:     recs,
		index:       idx,
		fingerprint: fingerprint(recs),
	}, nil
}

// fingerprint hashes ids and payloads; ground truth is excluded so the same
// corpus with and without labels resolves to one identity.
func fingerprint(recs []model.Record) string {
	h := sha256.New()
	var buf [8]byte
	for _, r := range recs {
		binary.LittleEndian.PutUint64(buf[:], uint64(r.ID))
		h.Write(buf[:])
		writeString(h, r.Title)
		writeString(h, r.Abstract)
		binary.LittleEndian.PutUint64(buf[:], uint64(len(r.Vector)))
		h.Write(buf[:])
		for _, v := range r.Vector {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeString(h hash.Hash, s string) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(s))
}

// Name returns the corpus name, usually the dataset file name.
func (c *Corpus) Name() string { return c.name }

// Len returns the number of records.
func (c *Corpus) Len() int { return len(c.records) }

// Fingerprint returns the content hash of the corpus.
func (c *Corpus) Fingerprint() string { return c.fingerprint }

// Ref returns the persisted identity of the corpus.
func (c *Corpus) Ref() Ref {
	return Ref{Name: c.name, Records: len(c.records), Fingerprint: c.fingerprint}
}

// Matches reports whether ref identifies this corpus.
func (c *Corpus) Matches(ref Ref) bool {
	return ref.Records == len(c.records) && ref.Fingerprint == c.fingerprint
}

// Records returns the records ordered by id. The slice must not be modified.
func (c *Corpus) Records() []model.Record { return c.records }

// Record returns the record with the given id.
func (c *Corpus) Record(id int) (model.Record, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Record{}, false
	}
	return c.records[i], true
}

// Has reports whether id exists in the corpus.
func (c *Corpus) Has(id int) bool {
	_, ok := c.index[id]
	return ok
}

// Position returns the row position of id in Records().
func (c *Corpus) Position(id int) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// IDs returns all record ids in ascending order.
func (c *Corpus) IDs() []int {
	ids := make([]int, len(c.records))
	for i, r := range c.records {
		ids[i] = r.ID
	}
	return ids
}

// Truth returns the ground-truth label of id, if known.
func (c *Corpus) Truth(id int) (model.Label, bool) {
	r, ok := c.Record(id)
	if !ok || !r.HasTruth() {
		return 0, false
	}
	return *r.Truth, true
}

// HasTruth reports whether every record carries a ground-truth label.
func (c *Corpus) HasTruth() bool {
	for _, r := range c.records {
		if !r.HasTruth() {
			return false
		}
	}
	return true
}

// WithTruth returns the ids whose ground truth equals l, ascending.
func (c *Corpus) WithTruth(l model.Label) []int {
	var ids []int
	for _, r := range c.records {
		if r.HasTruth() && *r.Truth == l {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
