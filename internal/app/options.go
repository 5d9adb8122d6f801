package service

import (
	"io"
	"time"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/registry"
	"github.com/okian/alscreen/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry replaces the built-in model registry.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithCorpus uses c instead of loading the configured dataset.
func WithCorpus(c *corpus.Corpus) Option {
	return func(s *Service) {
		s.corpus = c
	}
}

// WithClock sets the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithConsole sets where the interactive oracle reads answers and writes
// prompts. Defaults to stdin and stdout.
func WithConsole(in io.Reader, out io.Writer) Option {
	return func(s *Service) {
		if in != nil {
			s.in = in
		}
		if out != nil {
			s.out = out
		}
	}
}
