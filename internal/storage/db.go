// Package storage owns the engine's local SQLite database: scoring weights,
// usage statistics, and quicklinks all live in one file under the user's
// data directory. The schema is versioned through schema_meta and migrated
// in order on open.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// walCheckpointInterval is how often the WAL file is checkpointed to prevent
// unbounded growth while the launcher stays resident.
const walCheckpointInterval = 5 * time.Minute

// Store wraps the shared SQLite handle. A single Store is opened at startup
// and shared by the weights, stats, and quicklink layers.
type Store struct {
	db        *sql.DB
	logger    *slog.Logger
	stopCh    chan struct{} // signals the checkpoint goroutine to stop
	stoppedCh chan struct{} // closed once the checkpoint goroutine exits
	closeOnce sync.Once
	closeErr  error
}

// DefaultDBPath returns the default database path (~/.flare/state.db).
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	return filepath.Join(home, ".flare", "state.db"), nil
}

// Open opens (creating if needed) the database at dbPath and migrates the
// schema. An empty path selects DefaultDBPath. A nil logger falls back to
// slog.Default.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}

	// modernc.org/sqlite applies pragmas from the DSN.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	// SQLite behaves best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connecting to database")
	}

	s := &Store{
		db:        db,
		logger:    logger,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrating schema")
	}

	go s.walCheckpointLoop()

	return s, nil
}

// DB exposes the underlying handle to the table-owning layers.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close checkpoints the WAL and closes the database. Safe to call more than
// once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			<-s.stoppedCh
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

func (s *Store) walCheckpointLoop() {
	defer close(s.stoppedCh)

	ticker := time.NewTicker(walCheckpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				s.logger.Warn("wal checkpoint failed", "error", err)
			}
		}
	}
}

// migrate brings the schema up to the latest version, applying pending
// migrations in order and recording each in schema_meta.
func (s *Store) migrate(ctx context.Context) error {
	currentVersion := 0
	row := s.db.QueryRowContext(ctx, `
		SELECT version FROM schema_meta ORDER BY version DESC LIMIT 1
	`)
	if err := row.Scan(&currentVersion); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows), isTableNotFoundError(err):
			currentVersion = 0
		default:
			return errors.Wrap(err, "reading schema version")
		}
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{version: 1, sql: migrationV1},
		{version: 2, sql: migrationV2},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return errors.Wrapf(err, "migration v%d", m.version)
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO schema_meta (version, applied_at_unix_ms)
			VALUES (?, ?)
		`, m.version, time.Now().UnixMilli())
		if err != nil {
			return errors.Wrapf(err, "recording migration v%d", m.version)
		}
	}

	return nil
}

func isTableNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "does not exist")
}

// migrationV1 creates the initial schema.
const migrationV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_meta (
  version INTEGER PRIMARY KEY,
  applied_at_unix_ms INTEGER NOT NULL
);

-- Category scoring weights (opaque key/value, keyed by category name)
CREATE TABLE IF NOT EXISTS weights (
  category TEXT PRIMARY KEY,
  multiplier REAL NOT NULL,
  updated_at_unix_ms INTEGER NOT NULL
);

-- Decayed launch frequency per candidate
CREATE TABLE IF NOT EXISTS usage_stats (
  category TEXT NOT NULL,
  identifier TEXT NOT NULL,
  score REAL NOT NULL,
  last_ts_unix_ms INTEGER NOT NULL,
  PRIMARY KEY (category, identifier)
);

CREATE INDEX IF NOT EXISTS idx_usage_stats_last ON usage_stats(last_ts_unix_ms DESC);

-- User-defined quicklinks
CREATE TABLE IF NOT EXISTS quicklinks (
  link_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  keyword TEXT NOT NULL DEFAULT '',
  kind TEXT NOT NULL DEFAULT 'url',
  target TEXT NOT NULL,
  created_at_unix_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quicklinks_name ON quicklinks(name);
`

// migrationV2 adds per-quicklink hit tracking and keyword lookup.
const migrationV2 = `
ALTER TABLE quicklinks ADD COLUMN hits INTEGER NOT NULL DEFAULT 0;

CREATE INDEX IF NOT EXISTS idx_quicklinks_keyword ON quicklinks(keyword);
`
