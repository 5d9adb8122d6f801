package simulate

import "errors"

var (
	// ErrNoGroundTruth is returned when a simulation needs the truth of a
	// record that has none.
	ErrNoGroundTruth = errors.New("record has no ground truth")
	// ErrNotStarted is returned by Report before Run.
	ErrNotStarted = errors.New("simulation has not run")
)
