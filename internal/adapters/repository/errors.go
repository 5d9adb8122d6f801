package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound           = errors.New("repository: state not found")
	ErrPersist            = errors.New("repository: persisting state failed")
	ErrUnsupportedVersion = errors.New("repository: unsupported state format version")
	ErrUnsupportedFormat  = errors.New("repository: unsupported state file extension")
	ErrCorrupt            = errors.New("repository: state document is corrupt")
)
