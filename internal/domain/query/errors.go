package query

import "errors"

// Sentinel errors for the query package.
var (
	ErrShapeMismatch    = errors.New("query: scores and candidates differ in length")
	ErrInvalidBatchSize = errors.New("query: invalid batch size")
)
