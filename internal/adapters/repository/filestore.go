package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/alscreen/internal/domain/state"
	"github.com/okian/alscreen/pkg/logger"
	"github.com/okian/alscreen/pkg/metrics"
)

// FileStore keeps the state in a single JSON file. Saves write a temporary
// file in the same directory, fsync it and rename it over the target, so the
// file on disk is always a complete document.
type FileStore struct {
	path string
	opts options
}

// NewFileStore creates a store for the JSON file at path.
func NewFileStore(path string, opts ...Option) *FileStore {
	return &FileStore{path: path, opts: newOptions(opts)}
}

// Path implements Store.
func (s *FileStore) Path() string { return s.path }

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, st *state.State) error {
	start := time.Now()
	if err := s.save(st); err != nil {
		metrics.RecordPersistError()
		s.opts.log.Error(ctx, "state save failed", logger.String("path", s.path), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	elapsed := time.Since(start)
	metrics.RecordPersist(float64(elapsed.Microseconds()) / 1000)
	s.opts.log.Debug(ctx, "state saved",
		logger.String("path", s.path),
		logger.Int("cycle", st.Cycle()),
		logger.Int("events", st.Len()),
		logger.Duration("took", elapsed),
	)
	return nil
}

func (s *FileStore) save(st *state.State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(s.opts.mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	committed = true

	// Persist the rename itself. Not every platform can sync a directory.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context) (*state.State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return Decode(data)
}

// Delete implements Store. Deleting a missing file is not an error.
func (s *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete state file: %w", err)
	}
	return nil
}
