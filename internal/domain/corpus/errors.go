package corpus

import "errors"

// Sentinel errors for the corpus package.
var (
	ErrEmpty           = errors.New("corpus: no records")
	ErrDuplicateRecord = errors.New("corpus: duplicate record id")
	ErrInvalidRecordID = errors.New("corpus: invalid record id")
	ErrUnknownRecord   = errors.New("corpus: unknown record id")
	ErrAlreadyLabeled  = errors.New("corpus: record already labeled")
)
