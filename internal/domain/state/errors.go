package state

import "errors"

// Sentinel errors for the state package.
var (
	ErrInvalidState    = errors.New("state: invalid review state")
	ErrDuplicateRecord = errors.New("state: record already labeled")
	ErrPriorsSealed    = errors.New("state: priors can only be added before the first cycle")
	ErrEmptyBatch      = errors.New("state: empty batch")
	ErrCycleMismatch   = errors.New("state: event cycle does not match the batch")
	ErrInvalidOrigin   = errors.New("state: origin not allowed here")
	ErrNothingToUndo   = errors.New("state: no batch to undo")
)
