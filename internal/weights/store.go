package weights

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/runeberg/flare/internal/provider"
)

// ErrStorageCorrupt marks weight rows that failed to load or parse. Callers
// going through LoadOrDefaults never see it; they get defaults instead.
var ErrStorageCorrupt = errors.New("weights storage corrupt")

// Store persists the category multipliers as opaque key/value rows.
type Store interface {
	Load(ctx context.Context) (*Weights, error)
	Save(ctx context.Context, w *Weights) error
}

// LoadOrDefaults loads weights from store, silently falling back to the
// compiled-in defaults when the store is nil, empty, or corrupt. It never
// returns an error; the fallback is logged at warn level.
func LoadOrDefaults(ctx context.Context, store Store, logger *slog.Logger) *Weights {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		return Defaults()
	}
	w, err := store.Load(ctx)
	if err != nil {
		logger.Warn("loading weights failed, using defaults", "error", err)
		return Defaults()
	}
	return w
}

// SQLiteStore stores weights in the shared launcher database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database handle. The weights table is created
// by the storage migrations.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load returns the defaults overlaid with every persisted row, so categories
// the user never tuned keep their builtin multipliers. Any unreadable or
// non-positive row marks the whole load as corrupt.
func (s *SQLiteStore) Load(ctx context.Context) (*Weights, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, multiplier FROM weights`)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "querying weights"), ErrStorageCorrupt)
	}
	defer rows.Close()

	w := Defaults()
	for rows.Next() {
		var category string
		var multiplier float64
		if err := rows.Scan(&category, &multiplier); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "scanning weight row"), ErrStorageCorrupt)
		}
		if !validMultiplier(multiplier) {
			return nil, errors.Mark(
				errors.Newf("invalid multiplier %v for category %q", multiplier, category),
				ErrStorageCorrupt)
		}
		w.Categories[provider.Category(category)] = multiplier
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "iterating weight rows"), ErrStorageCorrupt)
	}
	return w, nil
}

// Save replaces the persisted mapping with w in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, w *Weights) error {
	if w == nil {
		w = Defaults()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning weights transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM weights`); err != nil {
		return errors.Wrap(err, "clearing weights")
	}

	now := time.Now().UnixMilli()
	for category, multiplier := range w.Categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO weights (category, multiplier, updated_at_unix_ms)
			VALUES (?, ?, ?)
		`, string(category), multiplier, now)
		if err != nil {
			return errors.Wrapf(err, "saving weight for %q", category)
		}
	}

	return errors.Wrap(tx.Commit(), "committing weights")
}

// MemoryStore keeps weights in memory. Used in tests and as the ephemeral
// configuration when no database is wired.
type MemoryStore struct {
	mu sync.Mutex
	w  *Weights
}

// NewMemoryStore returns an empty in-memory store; Load before any Save
// returns defaults.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*Weights, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.w == nil {
		return Defaults(), nil
	}
	return m.w.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, w *Weights) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w = w.Clone()
	return nil
}
