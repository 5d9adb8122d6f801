// Package config defines the process configuration and its loading hooks.
//
// Conventions:
// - New returns a Config filled with defaults.
// - Load layers a YAML file and ALSCREEN_* environment variables on top.
// - Validate reports every problem wrapped in ErrInvalidConfig.
package config

import (
	"github.com/okian/alscreen/internal/domain/model"
)

// Stop rule names accepted by StopRule.
const (
	StopExhaust     = "exhaust"
	StopAllRelevant = "all_relevant"
	StopMaxLabeled  = "max_labeled"
	StopMaxCycles   = "max_cycles"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Dataset is the CSV or TSV file holding the corpus.
	Dataset string `koanf:"dataset"`
	// StatePath is where the Review State is persisted (.json, .db or .sqlite).
	StatePath string `koanf:"state_path"`
	// Resume continues the state at StatePath instead of starting over.
	Resume bool `koanf:"resume"`

	Classifier        string         `koanf:"classifier"`
	QueryStrategy     string         `koanf:"query_strategy"`
	BalanceStrategy   string         `koanf:"balance_strategy"`
	FeatureExtraction string         `koanf:"feature_extraction"`
	ClassifierParams  map[string]any `koanf:"classifier_params"`
	QueryParams       map[string]any `koanf:"query_params"`
	BalanceParams     map[string]any `koanf:"balance_params"`
	FeatureParams     map[string]any `koanf:"feature_params"`

	// NInstances is the number of records queried per cycle.
	NInstances int `koanf:"n_instances"`
	// NPriorIncluded and NPriorExcluded are sampled from the ground truth
	// when no explicit priors are given.
	NPriorIncluded int   `koanf:"n_prior_included"`
	NPriorExcluded int   `koanf:"n_prior_excluded"`
	PriorIncluded  []int `koanf:"prior_included"`
	PriorExcluded  []int `koanf:"prior_excluded"`
	Seed           int64 `koanf:"seed"`

	// StopRule is one of exhaust, all_relevant, max_labeled, max_cycles.
	StopRule  string `koanf:"stop_rule"`
	StopValue int    `koanf:"stop_value"`
	// NQueries caps the number of cycles on top of StopRule; 0 means no cap.
	NQueries int `koanf:"n_queries"`

	// WriteInterval persists every k-th cycle; 0 persists only at the end.
	WriteInterval int `koanf:"write_interval"`
	// Workers sets the number of scoring workers; 0 uses one per CPU.
	Workers int `koanf:"workers"`
	// SkipUnextractable featurizes records without usable payload as zero
	// vectors instead of failing.
	SkipUnextractable bool `koanf:"skip_unextractable"`

	// MetricsAddr serves /healthz, /metrics and /stats when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`
	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`
	// ReportPath receives the simulation report as JSON when set.
	ReportPath string `koanf:"report_path"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		StatePath:         "alscreen-state.json",
		Classifier:        "nb",
		QueryStrategy:     "max_random",
		BalanceStrategy:   "weighted",
		FeatureExtraction: "tfidf",
		NInstances:        20,
		NPriorIncluded:    10,
		NPriorExcluded:    10,
		StopRule:          StopExhaust,
		MetricsEnabled:    true,
	}
}

// Settings returns the model settings the config describes.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		Classifier: model.RoleConfig{Name: c.Classifier, Params: c.ClassifierParams},
		Query:      model.RoleConfig{Name: c.QueryStrategy, Params: c.QueryParams},
		Balance:    model.RoleConfig{Name: c.BalanceStrategy, Params: c.BalanceParams},
		Feature:    model.RoleConfig{Name: c.FeatureExtraction, Params: c.FeatureParams},
		Seed:       c.Seed,
		NInstances: c.NInstances,
	}.Clone()
}
