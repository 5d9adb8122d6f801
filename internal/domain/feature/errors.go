package feature

import (
	"errors"
	"fmt"
)

// Sentinel errors for the feature package.
var (
	ErrExtraction     = errors.New("feature: extraction failed")
	ErrDimensionMatch = errors.New("feature: embedding widths differ")
)

// ExtractionError lists the records that could not be featurized.
type ExtractionError struct {
	Extractor string
	RecordIDs []int
	Reason    string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("feature: %s could not featurize %d record(s) %v: %s", e.Extractor, len(e.RecordIDs), e.RecordIDs, e.Reason)
}

// Unwrap lets errors.Is match ErrExtraction.
func (e *ExtractionError) Unwrap() error { return ErrExtraction }
