// Package state holds the Review State: the append-only label history of one
// review together with its settings history and cycle counter. It is the only
// part of a review that is persisted.
package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
)

// SettingsRecord is one entry of the settings history. Settings apply to
// every cycle >= FromCycle until the next record.
type SettingsRecord struct {
	FromCycle int            `json:"from_cycle"`
	Settings  model.Settings `json:"settings"`
}

// State is the review history. Invariants:
//   - a record id appears at most once in Events;
//   - the first NPriors events have origin prior and cycle 0, later events
//     have origin model or oracle;
//   - cycles 1..Cycle each own a contiguous, non-empty run of events.
//
// State is not safe for concurrent use; the review loop owns it.
type State struct {
	projectID string
	createdAt time.Time
	corpus    corpus.Ref
	events    []model.LabelEvent
	settings  []SettingsRecord
	nPriors   int
	cycle     int
	labeled   map[int]struct{}
}

// New creates an empty state at cycle 0 with a fresh project id.
func New(ref corpus.Ref, s model.Settings, now time.Time) *State {
	return &State{
		projectID: uuid.NewString(),
		createdAt: now.UTC(),
		corpus:    ref,
		settings:  []SettingsRecord{{FromCycle: 0, Settings: s.Clone()}},
		labeled:   make(map[int]struct{}),
	}
}

// ProjectID returns the project identifier.
func (s *State) ProjectID() string { return s.projectID }

// CreatedAt returns the creation time.
func (s *State) CreatedAt() time.Time { return s.createdAt }

// Corpus returns the reference of the corpus the review runs on.
func (s *State) Corpus() corpus.Ref { return s.corpus }

// Cycle returns the number of completed labeling batches.
func (s *State) Cycle() int { return s.cycle }

// NPriors returns the number of prior events.
func (s *State) NPriors() int { return s.nPriors }

// Len returns the number of events.
func (s *State) Len() int { return len(s.events) }

// Events returns a copy of the event log.
func (s *State) Events() []model.LabelEvent {
	return append([]model.LabelEvent(nil), s.events...)
}

// Priors returns a copy of the prior events.
func (s *State) Priors() []model.LabelEvent {
	return append([]model.LabelEvent(nil), s.events[:s.nPriors]...)
}

// IsLabeled reports whether id has an event.
func (s *State) IsLabeled(id int) bool {
	_, ok := s.labeled[id]
	return ok
}

// NonPrior returns the number of events appended by cycles.
func (s *State) NonPrior() int { return len(s.events) - s.nPriors }

// SettingsHistory returns a copy of the settings history.
func (s *State) SettingsHistory() []SettingsRecord {
	out := make([]SettingsRecord, len(s.settings))
	for i, r := range s.settings {
		out[i] = SettingsRecord{FromCycle: r.FromCycle, Settings: r.Settings.Clone()}
	}
	return out
}

// SettingsAt returns the settings in effect for cycle.
func (s *State) SettingsAt(cycle int) model.Settings {
	cur := s.settings[0].Settings
	for _, r := range s.settings[1:] {
		if r.FromCycle > cycle {
			break
		}
		cur = r.Settings
	}
	return cur.Clone()
}

// Current returns the settings of the next cycle.
func (s *State) Current() model.Settings { return s.SettingsAt(s.cycle + 1) }

// AppendPriors appends prior events. Priors are only accepted before any
// cycle ran and before any non-prior event exists.
func (s *State) AppendPriors(events []model.LabelEvent) error {
	if s.cycle != 0 || len(s.events) != s.nPriors {
		return ErrPriorsSealed
	}
	if err := s.checkNew(events); err != nil {
		return err
	}
	for _, ev := range events {
		if ev.Origin != model.OriginPrior {
			return fmt.Errorf("%w: %s event for record %d in priors", ErrInvalidOrigin, ev.Origin, ev.RecordID)
		}
		if ev.Cycle != 0 {
			return fmt.Errorf("%w: prior record %d has cycle %d", ErrCycleMismatch, ev.RecordID, ev.Cycle)
		}
	}
	s.push(events)
	s.nPriors += len(events)
	return nil
}

// AppendBatch appends one labeling batch and advances the cycle counter.
// Every event must carry cycle Cycle()+1 and origin model or oracle. The
// batch is applied entirely or not at all.
func (s *State) AppendBatch(events []model.LabelEvent) error {
	if len(events) == 0 {
		return ErrEmptyBatch
	}
	if err := s.checkNew(events); err != nil {
		return err
	}
	next := s.cycle + 1
	for _, ev := range events {
		if ev.Origin != model.OriginModel && ev.Origin != model.OriginOracle {
			return fmt.Errorf("%w: %s event for record %d in batch", ErrInvalidOrigin, ev.Origin, ev.RecordID)
		}
		if ev.Cycle != next {
			return fmt.Errorf("%w: record %d has cycle %d, want %d", ErrCycleMismatch, ev.RecordID, ev.Cycle, next)
		}
	}
	s.push(events)
	s.cycle = next
	return nil
}

// UndoLastBatch removes every event of the last cycle and steps the counter
// back. Settings changes scheduled past the new next cycle are dropped.
// Priors cannot be undone.
func (s *State) UndoLastBatch() ([]model.LabelEvent, error) {
	if s.cycle == 0 {
		return nil, ErrNothingToUndo
	}
	cut := len(s.events)
	for cut > s.nPriors && s.events[cut-1].Cycle == s.cycle {
		cut--
	}
	removed := append([]model.LabelEvent(nil), s.events[cut:]...)
	for _, ev := range removed {
		delete(s.labeled, ev.RecordID)
	}
	s.events = s.events[:cut]
	s.cycle--

	keep := len(s.settings)
	for keep > 1 && s.settings[keep-1].FromCycle > s.cycle+1 {
		keep--
	}
	s.settings = s.settings[:keep]
	return removed, nil
}

// ChangeSettings schedules settings for the next cycle. A second change
// before that cycle runs replaces the first.
func (s *State) ChangeSettings(settings model.Settings) {
	rec := SettingsRecord{FromCycle: s.cycle + 1, Settings: settings.Clone()}
	last := &s.settings[len(s.settings)-1]
	if last.FromCycle == rec.FromCycle {
		*last = rec
		return
	}
	s.settings = append(s.settings, rec)
}

func (s *State) checkNew(events []model.LabelEvent) error {
	seen := make(map[int]struct{}, len(events))
	for _, ev := range events {
		if !ev.Label.Valid() {
			return fmt.Errorf("%w: record %d", model.ErrInvalidLabel, ev.RecordID)
		}
		if _, ok := s.labeled[ev.RecordID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateRecord, ev.RecordID)
		}
		if _, ok := seen[ev.RecordID]; ok {
			return fmt.Errorf("%w: %d twice in one batch", ErrDuplicateRecord, ev.RecordID)
		}
		seen[ev.RecordID] = struct{}{}
	}
	return nil
}

func (s *State) push(events []model.LabelEvent) {
	for _, ev := range events {
		s.labeled[ev.RecordID] = struct{}{}
		s.events = append(s.events, ev)
	}
}
