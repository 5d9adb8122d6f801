// Package repository persists Review States as versioned documents, either as
// a JSON file or as a SQLite database.
package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/okian/alscreen/internal/domain/state"
)

// Store saves and loads the Review State of one project.
type Store interface {
	// Save replaces the stored state with st. A failed Save leaves the
	// previously stored state intact.
	Save(ctx context.Context, st *state.State) error
	// Load returns the stored state. Returns ErrNotFound when nothing has
	// been saved yet.
	Load(ctx context.Context) (*state.State, error)
	// Delete destroys the stored state.
	Delete(ctx context.Context) error
	// Path returns the location of the state.
	Path() string
	Close() error
}

// Open returns the store matching the extension of path: .json for a
// FileStore, .db or .sqlite for a SQLiteStore.
func Open(path string, opts ...Option) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewFileStore(path, opts...), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}
