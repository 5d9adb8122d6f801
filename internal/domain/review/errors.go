package review

import (
	"errors"
	"fmt"

	"github.com/okian/alscreen/internal/domain/model"
)

// Sentinel errors for the review package.
var (
	ErrNotSeeded         = errors.New("review: priors have not been seeded")
	ErrAlreadySeeded     = errors.New("review: priors already seeded")
	ErrInsufficientPrior = errors.New("review: not enough prior records")
	ErrPriorMismatch     = errors.New("review: prior label contradicts ground truth")
	ErrPriorOverlap      = errors.New("review: record listed as both included and excluded")
	ErrCorpusMismatch    = errors.New("review: state belongs to a different corpus")
	ErrInvalidSelection  = errors.New("review: query strategy returned an invalid selection")
	ErrNoOracle          = errors.New("review: no oracle configured")
	ErrNoRelevantRecords = errors.New("review: no known relevant records to wait for")
)

// InsufficientPriorError reports a prior class that could not be filled.
type InsufficientPriorError struct {
	Label     model.Label
	Wanted    int
	Available int
}

func (e *InsufficientPriorError) Error() string {
	return fmt.Sprintf("review: want %d %s priors, %d available", e.Wanted, e.Label, e.Available)
}

// Unwrap lets errors.Is match ErrInsufficientPrior.
func (e *InsufficientPriorError) Unwrap() error { return ErrInsufficientPrior }

// CycleError reports a failed cycle. Nothing of the cycle was appended.
type CycleError struct {
	Cycle int
	Role  string
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("review: cycle %d: %s: %v", e.Cycle, e.Role, e.Err)
}

// Unwrap returns the underlying failure.
func (e *CycleError) Unwrap() error { return e.Err }
