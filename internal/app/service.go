// Package service wires configuration, dataset, model registry, state store
// and review loop into the operations the CLI and the HTTP API expose.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/alscreen/internal/adapters/dataset"
	"github.com/okian/alscreen/internal/adapters/mq/queue"
	"github.com/okian/alscreen/internal/adapters/oracle"
	"github.com/okian/alscreen/internal/adapters/repository"
	"github.com/okian/alscreen/internal/adapters/worker"
	"github.com/okian/alscreen/internal/config"
	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/registry"
	"github.com/okian/alscreen/internal/domain/review"
	"github.com/okian/alscreen/internal/domain/simulate"
	"github.com/okian/alscreen/internal/domain/state"
	"github.com/okian/alscreen/pkg/logger"
	"github.com/okian/alscreen/pkg/metrics"
)

// Service runs reviews described by a Config. Operations on the same state
// path are serialized; operations on different paths may run concurrently.
type Service struct {
	mu sync.RWMutex

	// Core components
	cfg      *config.Config
	registry *registry.Registry
	corpus   *corpus.Corpus
	clock    func() time.Time
	in       io.Reader
	out      io.Writer

	projects map[string]*sync.Mutex

	// Last known progress, for /stats
	started  time.Time
	running  int
	progress review.Progress
	project  string
	report   *simulate.Report

	// Logging
	logger logger.Logger
}

// New constructs a Service for cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		registry: registry.Default(),
		clock:    time.Now,
		in:       os.Stdin,
		out:      os.Stdout,
		projects: make(map[string]*sync.Mutex),
		started:  time.Now(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockProject serializes access to the state at path.
func (s *Service) lockProject(path string) func() {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	s.mu.Lock()
	m, ok := s.projects[key]
	if !ok {
		m = &sync.Mutex{}
		s.projects[key] = m
	}
	s.running++
	s.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
	}
}

// Simulate runs a simulation over the configured dataset, using its ground
// truth as the oracle, and returns the evaluation of the result.
func (s *Service) Simulate(ctx context.Context) (simulate.Report, error) {
	unlock := s.lockProject(s.cfg.StatePath)
	defer unlock()

	c, err := s.loadCorpus(ctx)
	if err != nil {
		return simulate.Report{}, err
	}
	store, err := s.openStore()
	if err != nil {
		return simulate.Report{}, err
	}
	defer s.closeStore(ctx, store)

	stop, err := s.stopRule(c, false)
	if err != nil {
		return simulate.Report{}, err
	}
	opts := []simulate.Option{
		simulate.WithPriors(s.priors()),
		simulate.WithStopRule(stop),
		simulate.WithWriteInterval(s.cfg.WriteInterval),
		simulate.WithLogger(s.logger.Named("simulate")),
		simulate.WithClock(s.clock),
		simulate.WithScorer(s.pool()),
		simulate.WithSkipUnextractable(s.cfg.SkipUnextractable),
	}
	if store != nil {
		opts = append(opts, simulate.WithStore(store))
		if s.cfg.Resume {
			st, err := s.loadState(ctx, store)
			switch {
			case err == nil:
				opts = append(opts, simulate.WithResume(st))
			case errors.Is(err, ErrNoState):
				s.logger.Info(ctx, "nothing to resume, starting a new simulation", logger.String("state", store.Path()))
			default:
				return simulate.Report{}, err
			}
		} else if err := s.ensureFresh(ctx, store); err != nil {
			return simulate.Report{}, err
		}
	}

	runner := simulate.New(c, s.registry, s.cfg.Settings(), opts...)
	runErr := runner.Run(ctx)
	if loop := runner.Loop(); loop != nil && loop.State() != nil {
		s.track(loop)
	}
	if runErr != nil {
		return simulate.Report{}, runErr
	}

	rep, err := runner.Report()
	if err != nil {
		return simulate.Report{}, err
	}
	s.mu.Lock()
	s.report = &rep
	s.mu.Unlock()
	if err := s.writeReport(rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// Oracle runs an interactive review: records are shown on the console and the
// reviewer's answers are the labels. The session ends when the review stops
// or the reviewer quits; both persist what was labeled.
func (s *Service) Oracle(ctx context.Context) error {
	unlock := s.lockProject(s.cfg.StatePath)
	defer unlock()

	c, err := s.loadCorpus(ctx)
	if err != nil {
		return err
	}
	store, err := s.openStore()
	if err != nil {
		return err
	}
	defer s.closeStore(ctx, store)

	stop, err := s.stopRule(c, true)
	if err != nil {
		return err
	}
	answers := queue.NewInMemoryQueue()
	interactive := oracle.NewInteractive(c, answers, oracle.WithLogger(s.logger.Named("oracle")))
	loopOpts := []review.Option{
		review.WithOracle(interactive),
		review.WithStopRule(stop),
		review.WithWriteInterval(s.cfg.WriteInterval),
		review.WithLogger(s.logger.Named("review")),
		review.WithClock(s.clock),
		review.WithScorer(s.pool()),
		review.WithSkipUnextractable(s.cfg.SkipUnextractable),
	}
	if store != nil {
		loopOpts = append(loopOpts, review.WithSaver(store))
	}

	loop, err := s.openLoop(ctx, c, store, loopOpts)
	if err != nil {
		return err
	}

	session, cancel := context.WithCancel(ctx)
	defer cancel()
	console := oracle.NewConsole(s.in, s.out, answers)
	consoleDone := make(chan error, 1)
	go func() { consoleDone <- console.Run(session, interactive.Prompts()) }()

	runErr := loop.Run(session)
	cancel()
	// A console blocked on input cannot observe cancellation; only wait for
	// it when the session ended on its own.
	var consoleErr error
	select {
	case consoleErr = <-consoleDone:
	case <-ctx.Done():
	}
	s.track(loop)

	if runErr != nil && !errors.Is(runErr, queue.ErrClosed) && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if consoleErr != nil && !errors.Is(consoleErr, oracle.ErrQuit) && !errors.Is(consoleErr, context.Canceled) {
		return consoleErr
	}
	p := loop.Progress()
	s.logger.Info(ctx, "oracle session ended",
		logger.String("phase", p.Phase.String()),
		logger.Int("cycle", p.Cycle),
		logger.Int("labeled", p.Labeled),
		logger.Int("relevant", p.Relevant),
	)
	return nil
}

// openLoop resumes the saved review when asked to and one exists, and seeds
// a new one otherwise. A saved review is never replaced by a new one.
func (s *Service) openLoop(ctx context.Context, c *corpus.Corpus, store repository.Store, opts []review.Option) (*review.Loop, error) {
	if store != nil {
		if !s.cfg.Resume {
			if err := s.ensureFresh(ctx, store); err != nil {
				return nil, err
			}
		} else {
			st, err := s.loadState(ctx, store)
			if err == nil {
				return review.Resume(c, s.registry, st, opts...)
			}
			if !errors.Is(err, ErrNoState) {
				return nil, err
			}
		}
	}
	loop, err := review.New(c, s.registry, s.cfg.Settings(), opts...)
	if err != nil {
		return nil, err
	}
	if err := loop.Seed(ctx, s.priors()); err != nil {
		return nil, err
	}
	return loop, nil
}

// Undo removes the last labeling batch of the saved review.
func (s *Service) Undo(ctx context.Context) ([]model.LabelEvent, error) {
	unlock := s.lockProject(s.cfg.StatePath)
	defer unlock()

	c, err := s.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	store, err := s.openStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrNoState
	}
	defer s.closeStore(ctx, store)

	st, err := s.loadState(ctx, store)
	if err != nil {
		return nil, err
	}
	loop, err := review.Resume(c, s.registry, st,
		review.WithSaver(store),
		review.WithLogger(s.logger.Named("review")),
	)
	if err != nil {
		return nil, err
	}
	removed, err := loop.UndoLastBatch(ctx)
	if err != nil {
		return nil, err
	}
	s.track(loop)
	return removed, nil
}

// Delete destroys the saved review state.
func (s *Service) Delete(ctx context.Context) error {
	unlock := s.lockProject(s.cfg.StatePath)
	defer unlock()

	store, err := s.openStore()
	if err != nil {
		return err
	}
	if store == nil {
		return ErrNoState
	}
	defer s.closeStore(ctx, store)

	if _, err := s.loadState(ctx, store); err != nil {
		return err
	}
	if err := store.Delete(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.project = ""
	s.progress = review.Progress{}
	s.report = nil
	s.mu.Unlock()
	s.logger.Info(ctx, "review state deleted", logger.String("state", store.Path()))
	return nil
}

// Report evaluates the saved review against the ground truth of the dataset.
func (s *Service) Report(ctx context.Context) (simulate.Report, error) {
	unlock := s.lockProject(s.cfg.StatePath)
	defer unlock()

	c, err := s.loadCorpus(ctx)
	if err != nil {
		return simulate.Report{}, err
	}
	store, err := s.openStore()
	if err != nil {
		return simulate.Report{}, err
	}
	if store == nil {
		return simulate.Report{}, ErrNoState
	}
	defer s.closeStore(ctx, store)

	st, err := s.loadState(ctx, store)
	if err != nil {
		return simulate.Report{}, err
	}
	rep, err := simulate.Evaluate(st, c)
	if err != nil {
		return simulate.Report{}, err
	}
	s.mu.Lock()
	s.report = &rep
	s.mu.Unlock()
	if err := s.writeReport(rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"uptimeSeconds": time.Since(s.started).Seconds(),
		"running":       s.running,
		"statePath":     s.cfg.StatePath,
		"classifier":    s.cfg.Classifier,
		"queryStrategy": s.cfg.QueryStrategy,
		"nInstances":    s.cfg.NInstances,
	}
	if s.project != "" {
		stats["project"] = s.project
		stats["phase"] = s.progress.Phase.String()
		stats["cycle"] = s.progress.Cycle
		stats["labeled"] = s.progress.Labeled
		stats["relevant"] = s.progress.Relevant
		stats["unlabeled"] = s.progress.Unlabeled
	}
	if s.report != nil {
		stats["recordsRead"] = s.report.Read
		stats["relevantFound"] = s.report.Found
		if s.report.WSS95 != nil {
			stats["wss95"] = *s.report.WSS95
		}
	}
	return stats
}

func (s *Service) track(loop *review.Loop) {
	p := loop.Progress()
	s.mu.Lock()
	s.progress = p
	if st := loop.State(); st != nil {
		s.project = st.ProjectID()
	}
	s.mu.Unlock()
	metrics.UpdateProgress(p.Cycle, p.Labeled, p.Relevant, p.Unlabeled)
}

func (s *Service) loadCorpus(ctx context.Context) (*corpus.Corpus, error) {
	if s.corpus != nil {
		return s.corpus, nil
	}
	if s.cfg.Dataset == "" {
		return nil, ErrNoDataset
	}
	c, err := dataset.Load(ctx, s.cfg.Dataset)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "dataset loaded",
		logger.String("path", s.cfg.Dataset),
		logger.Int("records", c.Len()),
		logger.String("fingerprint", c.Fingerprint()),
	)
	return c, nil
}

// openStore returns the configured state store, nil when no path is set.
func (s *Service) openStore() (repository.Store, error) {
	if s.cfg.StatePath == "" {
		return nil, nil
	}
	return repository.Open(s.cfg.StatePath, repository.WithLogger(s.logger.Named("repository")))
}

func (s *Service) closeStore(ctx context.Context, store repository.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		s.logger.Warn(ctx, "closing state store failed", logger.Error(err))
	}
}

func (s *Service) loadState(ctx context.Context, store repository.Store) (*state.State, error) {
	st, err := store.Load(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoState, store.Path())
	}
	return st, err
}

func (s *Service) priors() review.PriorSpec {
	return review.PriorSpec{
		Included:  s.cfg.PriorIncluded,
		Excluded:  s.cfg.PriorExcluded,
		NIncluded: s.cfg.NPriorIncluded,
		NExcluded: s.cfg.NPriorExcluded,
	}
}

// ensureFresh fails when store already holds a review.
func (s *Service) ensureFresh(ctx context.Context, store repository.Store) error {
	_, err := s.loadState(ctx, store)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrStateExists, store.Path())
	case errors.Is(err, ErrNoState):
		return nil
	default:
		return err
	}
}

// stopRule combines the configured rule with the n_queries cap. Waiting for
// all relevant records needs ground truth, which a human review lacks.
func (s *Service) stopRule(c *corpus.Corpus, interactive bool) (review.StopRule, error) {
	var rule review.StopRule
	switch s.cfg.StopRule {
	case config.StopAllRelevant:
		if interactive || !c.HasTruth() {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, ErrStopNeedsTruth)
		}
		r, err := review.AllRelevantFound(c.WithTruth(model.Relevant))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		rule = r
	case config.StopMaxLabeled:
		rule = review.MaxLabeled(s.cfg.StopValue)
	case config.StopMaxCycles:
		rule = review.MaxCycles(s.cfg.StopValue)
	default:
		rule = review.Exhausted()
	}
	if s.cfg.NQueries > 0 {
		rule = review.Any(rule, review.MaxCycles(s.cfg.NQueries))
	}
	return rule, nil
}

func (s *Service) pool() *worker.Pool {
	return worker.NewPool(
		worker.WithWorkers(s.cfg.Workers),
		worker.WithLogger(s.logger.Named("worker")),
	)
}

func (s *Service) writeReport(rep simulate.Report) error {
	if s.cfg.ReportPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(s.cfg.ReportPath, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
