package oracle

import "github.com/okian/alscreen/pkg/logger"

// Option applies a configuration option to the Interactive oracle.
type Option func(*Interactive)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Interactive) {
		if l != nil {
			o.log = l
		}
	}
}

// WithPromptBuffer sets how many prompts may wait for a reader.
func WithPromptBuffer(n int) Option {
	return func(o *Interactive) {
		if n >= 0 {
			o.buffer = n
		}
	}
}
