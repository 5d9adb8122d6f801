// Package model contains domain models passed between layers.
package model

import "strings"

// Record is one reviewable item of the corpus. Records are immutable once
// the corpus is loaded.
type Record struct {
	ID       int       // stable id, dataset row order
	Title    string    // title payload
	Abstract string    // abstract payload
	Vector   []float64 // optional pre-embedded payload
	Truth    *Label    // ground truth, simulation only
}

// Text returns the textual payload used by text feature extractors.
func (r Record) Text() string {
	return strings.TrimSpace(r.Title + " " + r.Abstract)
}

// HasTruth reports whether the record carries a ground-truth label.
func (r Record) HasTruth() bool {
	return r.Truth != nil && r.Truth.Valid()
}

// LabelPtr returns a pointer to l, handy for building records with truth.
func LabelPtr(l Label) *Label {
	return &l
}
