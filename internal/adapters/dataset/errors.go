package dataset

import "errors"

var (
	// ErrMalformed is returned for files that cannot be read as a dataset.
	ErrMalformed = errors.New("malformed dataset")
	// ErrUnsupportedFormat is returned for file extensions other than .csv and .tsv.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)
