package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate checks the config and returns every problem found, each wrapped
// in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		bad("log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		bad("log_format %q", c.LogFormat)
	}

	if c.StatePath != "" {
		switch strings.ToLower(filepath.Ext(c.StatePath)) {
		case ".json", ".db", ".sqlite", ".sqlite3":
		default:
			bad("state_path %q must end in .json, .db or .sqlite", c.StatePath)
		}
	}
	if c.Resume && c.StatePath == "" {
		bad("resume needs a state_path")
	}

	for key, name := range map[string]string{
		"classifier":         c.Classifier,
		"query_strategy":     c.QueryStrategy,
		"balance_strategy":   c.BalanceStrategy,
		"feature_extraction": c.FeatureExtraction,
	} {
		if strings.TrimSpace(name) == "" {
			bad("%s must not be empty", key)
		}
	}

	if c.NInstances < 1 {
		bad("n_instances must be at least 1, got %d", c.NInstances)
	}
	if c.NPriorIncluded < 0 || c.NPriorExcluded < 0 {
		bad("prior counts must not be negative")
	}
	if c.WriteInterval < 0 {
		bad("write_interval must not be negative, got %d", c.WriteInterval)
	}
	if c.Workers < 0 {
		bad("workers must not be negative, got %d", c.Workers)
	}
	if c.NQueries < 0 {
		bad("n_queries must not be negative, got %d", c.NQueries)
	}

	switch c.StopRule {
	case StopExhaust, StopAllRelevant:
	case StopMaxLabeled, StopMaxCycles:
		if c.StopValue < 1 {
			bad("stop_rule %s needs a positive stop_value", c.StopRule)
		}
	default:
		bad("stop_rule %q", c.StopRule)
	}

	return errors.Join(errs...)
}
