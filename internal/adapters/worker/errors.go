package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrShortResult = errors.New("model returned the wrong number of scores")
)
