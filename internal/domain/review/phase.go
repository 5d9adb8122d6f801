package review

import "fmt"

// Phase is the lifecycle position of a Loop.
type Phase int

const (
	PhaseSeeding Phase = iota + 1 // Waiting for priors.
	PhaseRunning                  // Cycles can run.
	PhaseStopped                  // A stop rule fired or no records are left.
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSeeding:
		return "seeding"
	case PhaseRunning:
		return "running"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Progress summarizes a review.
type Progress struct {
	Phase     Phase `json:"phase"`
	Cycle     int   `json:"cycle"`
	Labeled   int   `json:"labeled"`
	Relevant  int   `json:"relevant"`
	Unlabeled int   `json:"unlabeled"`
	NonPrior  int   `json:"non_prior"`
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
