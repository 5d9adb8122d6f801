package oracle

import "errors"

var (
	// ErrQuit is returned when the reviewer ends the session.
	ErrQuit = errors.New("reviewer quit")
	// ErrUnknownRecord is returned when a prompt names a record outside the corpus.
	ErrUnknownRecord = errors.New("unknown record")
)
