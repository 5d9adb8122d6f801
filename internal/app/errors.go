package service

import "errors"

var (
	// ErrNoDataset is returned when an operation needs a corpus and none is configured.
	ErrNoDataset = errors.New("no dataset configured")
	// ErrNoState is returned when an operation needs a saved Review State and there is none.
	ErrNoState = errors.New("no saved review state")
	// ErrStateExists is returned when a new review would replace a saved one.
	ErrStateExists = errors.New("a review state already exists; resume it or delete it first")
	// ErrStopNeedsTruth is returned when the all_relevant stop rule is used
	// without ground truth to know which records are relevant.
	ErrStopNeedsTruth = errors.New("stop rule all_relevant needs a fully labeled dataset and simulate mode")
)
