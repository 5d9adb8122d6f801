package repository

import (
	"os"

	"github.com/okian/alscreen/pkg/logger"
)

const defaultFileMode os.FileMode = 0o600

type options struct {
	log  logger.Logger
	mode os.FileMode
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithFileMode sets the permissions of written state files.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		if mode != 0 {
			o.mode = mode
		}
	}
}

func newOptions(opts []Option) options {
	o := options{log: logger.Nop(), mode: defaultFileMode}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
