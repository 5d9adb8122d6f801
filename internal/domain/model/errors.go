package model

import "errors"

// Sentinel errors for the model package.
var (
	ErrInvalidLabel  = errors.New("model: invalid label")
	ErrInvalidOrigin = errors.New("model: invalid origin")
)
