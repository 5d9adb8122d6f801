package state

import (
	"fmt"
	"time"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
)

// Snapshot is the serializable form of a State.
type Snapshot struct {
	ProjectID       string             `json:"project_id"`
	CreatedAt       time.Time          `json:"created_at"`
	Corpus          corpus.Ref         `json:"corpus"`
	NPriors         int                `json:"n_priors"`
	Cycle           int                `json:"cycle"`
	SettingsHistory []SettingsRecord   `json:"settings_history"`
	Events          []model.LabelEvent `json:"events"`
}

// Snapshot returns a deep copy of s in serializable form.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		ProjectID:       s.projectID,
		CreatedAt:       s.createdAt,
		Corpus:          s.corpus,
		NPriors:         s.nPriors,
		Cycle:           s.cycle,
		SettingsHistory: s.SettingsHistory(),
		Events:          s.Events(),
	}
}

// FromSnapshot rebuilds a State and checks every invariant. Errors wrap
// ErrInvalidState.
func FromSnapshot(snap Snapshot) (*State, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	s := &State{
		projectID: snap.ProjectID,
		createdAt: snap.CreatedAt,
		corpus:    snap.Corpus,
		nPriors:   snap.NPriors,
		cycle:     snap.Cycle,
		labeled:   make(map[int]struct{}, len(snap.Events)),
	}
	s.settings = make([]SettingsRecord, len(snap.SettingsHistory))
	for i, r := range snap.SettingsHistory {
		s.settings[i] = SettingsRecord{FromCycle: r.FromCycle, Settings: r.Settings.Clone()}
	}
	s.push(snap.Events)
	return s, nil
}

// Validate checks the state invariants of snap.
func (snap Snapshot) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
	}

	if snap.ProjectID == "" {
		return invalid("missing project id")
	}
	if snap.NPriors < 0 || snap.NPriors > len(snap.Events) {
		return invalid("prior count %d out of range", snap.NPriors)
	}
	if snap.Cycle < 0 {
		return invalid("negative cycle %d", snap.Cycle)
	}

	if len(snap.SettingsHistory) == 0 || snap.SettingsHistory[0].FromCycle != 0 {
		return invalid("settings history must start at cycle 0")
	}
	for i := 1; i < len(snap.SettingsHistory); i++ {
		if snap.SettingsHistory[i].FromCycle <= snap.SettingsHistory[i-1].FromCycle {
			return invalid("settings history not increasing at entry %d", i)
		}
	}
	if last := snap.SettingsHistory[len(snap.SettingsHistory)-1]; last.FromCycle > snap.Cycle+1 {
		return invalid("settings scheduled for cycle %d after cycle %d", last.FromCycle, snap.Cycle)
	}

	seen := make(map[int]struct{}, len(snap.Events))
	prev := 0
	for i, ev := range snap.Events {
		if _, ok := seen[ev.RecordID]; ok {
			return invalid("record %d labeled twice", ev.RecordID)
		}
		seen[ev.RecordID] = struct{}{}
		if !ev.Label.Valid() {
			return invalid("event %d has an invalid label", i)
		}

		if i < snap.NPriors {
			if ev.Origin != model.OriginPrior || ev.Cycle != 0 {
				return invalid("event %d must be a cycle 0 prior", i)
			}
			continue
		}
		if ev.Origin != model.OriginModel && ev.Origin != model.OriginOracle {
			return invalid("event %d has origin %s after the priors", i, ev.Origin)
		}
		if ev.Cycle < 1 || (ev.Cycle != prev && ev.Cycle != prev+1) {
			return invalid("event %d jumps from cycle %d to %d", i, prev, ev.Cycle)
		}
		prev = ev.Cycle
	}
	if prev != snap.Cycle {
		return invalid("last batch is cycle %d, counter is %d", prev, snap.Cycle)
	}
	return nil
}
