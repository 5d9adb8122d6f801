package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/state"
	"github.com/okian/alscreen/pkg/logger"
	"github.com/okian/alscreen/pkg/metrics"
)

// Meta keys of the SQLite document.
const (
	metaVersion   = "format_version"
	metaProject   = "project_id"
	metaCreatedAt = "created_at"
	metaCorpus    = "corpus"
	metaPriors    = "n_priors"
	metaCycle     = "cycle"
	metaSettings  = "settings_history"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	seq               INTEGER PRIMARY KEY,
	record_id         INTEGER NOT NULL UNIQUE,
	label             TEXT NOT NULL,
	origin            TEXT NOT NULL,
	cycle             INTEGER NOT NULL,
	timestamp         TEXT NOT NULL,
	query_strategy    TEXT NOT NULL,
	classifier        TEXT NOT NULL,
	feature_extractor TEXT NOT NULL,
	balance_strategy  TEXT NOT NULL,
	trained           INTEGER NOT NULL
);
`

// SQLiteStore keeps the state in a SQLite database with one row per event.
// Saves replace every row inside a single transaction.
type SQLiteStore struct {
	path string
	db   *sql.DB
	opts options
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{path: path, db: db, opts: newOptions(opts)}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Path implements Store.
func (s *SQLiteStore) Path() string { return s.path }

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, st *state.State) error {
	start := time.Now()
	if err := s.save(ctx, st); err != nil {
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

func (s *SQLiteStore) save(ctx context.Context, st *state.State) error {
	snap := st.Snapshot()
	ref, err := json.Marshal(snap.Corpus)
	if err != nil {
		return fmt.Errorf("encode corpus ref: %w", err)
	}
	settings, err := json.Marshal(snap.SettingsHistory)
	if err != nil {
		return fmt.Errorf("encode settings history: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM meta`); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	meta := [][2]string{
		{metaVersion, strconv.Itoa(FormatVersion)},
		{metaProject, snap.ProjectID},
		{metaCreatedAt, snap.CreatedAt.Format(time.RFC3339Nano)},
		{metaCorpus, string(ref)},
		{metaPriors, strconv.Itoa(snap.NPriors)},
		{metaCycle, strconv.Itoa(snap.Cycle)},
		{metaSettings, string(settings)},
	}
	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("insert meta %s: %w", kv[0], err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (
			seq, record_id, label, origin, cycle, timestamp,
			query_strategy, classifier, feature_extractor, balance_strategy, trained
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, ev := range snap.Events {
		_, err := stmt.ExecContext(ctx,
			i,
			ev.RecordID,
			ev.Label.String(),
			ev.Origin.String(),
			ev.Cycle,
			ev.Timestamp.UTC().Format(time.RFC3339Nano),
			ev.QueryStrategy,
			ev.Classifier,
			ev.FeatureExtractor,
			ev.BalanceStrategy,
			ev.Trained,
		)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (*state.State, error) {
	meta, err := s.loadMeta(ctx)
	if err != nil {
		return nil, err
	}
	if len(meta) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}

	version, err := strconv.Atoi(meta[metaVersion])
	if err != nil {
		return nil, fmt.Errorf("%w: format_version %q", ErrCorrupt, meta[metaVersion])
	}
	if err := checkVersion(version); err != nil {
		return nil, err
	}

	snap := state.Snapshot{ProjectID: meta[metaProject]}
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, meta[metaCreatedAt]); err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", ErrCorrupt, err)
	}
	var ref corpus.Ref
	if err := json.Unmarshal([]byte(meta[metaCorpus]), &ref); err != nil {
		return nil, fmt.Errorf("%w: corpus: %v", ErrCorrupt, err)
	}
	snap.Corpus = ref
	if err := json.Unmarshal([]byte(meta[metaSettings]), &snap.SettingsHistory); err != nil {
		return nil, fmt.Errorf("%w: settings_history: %v", ErrCorrupt, err)
	}
	if snap.NPriors, err = strconv.Atoi(meta[metaPriors]); err != nil {
		return nil, fmt.Errorf("%w: n_priors: %v", ErrCorrupt, err)
	}
	if snap.Cycle, err = strconv.Atoi(meta[metaCycle]); err != nil {
		return nil, fmt.Errorf("%w: cycle: %v", ErrCorrupt, err)
	}
	if snap.Events, err = s.loadEvents(ctx); err != nil {
		return nil, err
	}

	st, err := state.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return st, nil
}

func (s *SQLiteStore) loadMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("failed to query meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (s *SQLiteStore) loadEvents(ctx context.Context) ([]model.LabelEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, label, origin, cycle, timestamp,
		       query_strategy, classifier, feature_extractor, balance_strategy, trained
		FROM events
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []model.LabelEvent
	for rows.Next() {
		var (
			ev            model.LabelEvent
			label, origin string
			ts            string
		)
		err := rows.Scan(
			&ev.RecordID,
			&label,
			&origin,
			&ev.Cycle,
			&ts,
			&ev.QueryStrategy,
			&ev.Classifier,
			&ev.FeatureExtractor,
			&ev.BalanceStrategy,
			&ev.Trained,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := ev.Label.UnmarshalText([]byte(label)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if err := ev.Origin.UnmarshalText([]byte(origin)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if ev.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("%w: timestamp: %v", ErrCorrupt, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Delete implements Store. The schema is kept; only the state rows go.
func (s *SQLiteStore) Delete(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, table := range []string{"meta", "events"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
