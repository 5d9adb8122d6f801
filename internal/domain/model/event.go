package model

import "time"

// LabelEvent is one entry of the review history. Events are append-only and
// their order is the order in which the reviewer saw the records.
type LabelEvent struct {
	RecordID         int       `json:"record_id"`
	Label            Label     `json:"label"`
	Origin           Origin    `json:"origin"`
	Cycle            int       `json:"cycle"`
	Timestamp        time.Time `json:"timestamp"`
	QueryStrategy    string    `json:"query_strategy"`
	Classifier       string    `json:"classifier"`
	FeatureExtractor string    `json:"feature_extractor"`
	BalanceStrategy  string    `json:"balance_strategy"`
	// Trained is false when the record was picked without a trained model
	// (priors, and cycles that fell back to the untrained ordering).
	Trained bool `json:"trained"`
}

// Answer is a label submitted by an interactive reviewer.
type Answer struct {
	RecordID int
	Label    Label
}
