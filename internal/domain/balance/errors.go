package balance

import "errors"

// Sentinel errors for the balance package.
var (
	ErrShapeMismatch = errors.New("balance: rows and labels differ in length")
	ErrEmptyTraining = errors.New("balance: no training rows")
)
