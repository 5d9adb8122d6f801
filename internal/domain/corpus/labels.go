package corpus

import (
	"fmt"

	"github.com/okian/alscreen/internal/domain/model"
)

// Labels is the mutable label state of one review over a corpus. It is not
// safe for concurrent use; each review owns its own Labels.
type Labels struct {
	corpus   *Corpus
	labels   map[int]model.Label
	relevant int
}

// NewLabels returns an empty label view over c.
func NewLabels(c *Corpus) *Labels {
	return &Labels{corpus: c, labels: make(map[int]model.Label)}
}

// Set records label l for id. Relabeling is rejected.
func (s *Labels) Set(id int, l model.Label) error {
	if !s.corpus.Has(id) {
		return fmt.Errorf("%w: %d", ErrUnknownRecord, id)
	}
	if !l.Valid() {
		return fmt.Errorf("%w: %d", model.ErrInvalidLabel, int(l))
	}
	if _, ok := s.labels[id]; ok {
		return fmt.Errorf("%w: %d", ErrAlreadyLabeled, id)
	}
	s.labels[id] = l
	if l == model.Relevant {
		s.relevant++
	}
	return nil
}

// Unset removes the label of id. Only undo uses this.
func (s *Labels) Unset(id int) {
	l, ok := s.labels[id]
	if !ok {
		return
	}
	delete(s.labels, id)
	if l == model.Relevant {
		s.relevant--
	}
}

// Reset clears all labels.
func (s *Labels) Reset() {
	s.labels = make(map[int]model.Label)
	s.relevant = 0
}

// Get returns the label of id.
func (s *Labels) Get(id int) (model.Label, bool) {
	l, ok := s.labels[id]
	return l, ok
}

// IsLabeled reports whether id has a label.
func (s *Labels) IsLabeled(id int) bool {
	_, ok := s.labels[id]
	return ok
}

// Count returns the number of labeled records.
func (s *Labels) Count() int { return len(s.labels) }

// Relevant returns the number of records labeled relevant.
func (s *Labels) Relevant() int { return s.relevant }

// Unlabeled returns the unlabeled record ids in ascending order.
func (s *Labels) Unlabeled() []int {
	out := make([]int, 0, s.corpus.Len()-len(s.labels))
	for _, r := range s.corpus.records {
		if _, ok := s.labels[r.ID]; !ok {
			out = append(out, r.ID)
		}
	}
	return out
}

// Remaining returns the number of unlabeled records.
func (s *Labels) Remaining() int {
	return s.corpus.Len() - len(s.labels)
}
