// Package stats tracks per-candidate launch frequency with exponential
// decay and turns it into a bounded ranking factor.
package stats

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/runeberg/flare/internal/provider"
	"github.com/runeberg/flare/internal/rank"
)

const (
	// DefaultTauMs is the default decay time constant (7 days in milliseconds).
	DefaultTauMs = 7 * 24 * 60 * 60 * 1000

	// MinTauMs is the minimum allowed tau (1 day in milliseconds).
	// Values below this are clamped.
	MinTauMs = 1 * 24 * 60 * 60 * 1000

	// maxFactor bounds the usage boost so frequency never outranks a
	// better match tier.
	maxFactor = 2.0
)

// Options configures the tracker.
type Options struct {
	// TauMs is the decay time constant in milliseconds.
	// Defaults to DefaultTauMs (7 days).
	TauMs int64
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{TauMs: DefaultTauMs}
}

// Noop is a stats source that boosts nothing.
type Noop struct{}

// Factor always returns the neutral factor.
func (Noop) Factor(provider.Category, string) float64 { return 1.0 }

var _ rank.StatsSource = Noop{}

type statKey struct {
	category   provider.Category
	identifier string
}

type statEntry struct {
	score    float64
	lastTSMs int64
}

// Tracker persists decayed launch frequencies in SQLite and serves
// ranking factors from an in-memory mirror. Factor is called once per
// candidate inside the scoring loop, so reads never touch the database.
type Tracker struct {
	db     *sql.DB
	tauMs  int64
	logger *slog.Logger

	mu  sync.RWMutex
	hot map[statKey]statEntry
}

var _ rank.StatsSource = (*Tracker)(nil)

// NewTracker loads the usage_stats table into memory and returns a
// tracker backed by db. A nil logger falls back to slog.Default.
func NewTracker(db *sql.DB, opts Options, logger *slog.Logger) (*Tracker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tauMs := opts.TauMs
	if tauMs <= 0 {
		tauMs = DefaultTauMs
	}
	if tauMs < MinTauMs {
		tauMs = MinTauMs
	}

	t := &Tracker{
		db:     db,
		tauMs:  tauMs,
		logger: logger,
		hot:    make(map[statKey]statEntry),
	}
	if err := t.reload(context.Background()); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tracker) reload(ctx context.Context) error {
	rows, err := t.db.QueryContext(ctx, `
		SELECT category, identifier, score, last_ts_unix_ms FROM usage_stats
	`)
	if err != nil {
		return errors.Wrap(err, "loading usage stats")
	}
	defer rows.Close()

	hot := make(map[statKey]statEntry)
	for rows.Next() {
		var cat, id string
		var e statEntry
		if err := rows.Scan(&cat, &id, &e.score, &e.lastTSMs); err != nil {
			return errors.Wrap(err, "scanning usage stats row")
		}
		hot[statKey{provider.Category(cat), id}] = e
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterating usage stats rows")
	}

	t.mu.Lock()
	t.hot = hot
	t.mu.Unlock()
	return nil
}

// Factor returns the ranking factor for a candidate, always in
// [1.0, maxFactor]. Unknown candidates get the neutral 1.0.
func (t *Tracker) Factor(cat provider.Category, identifier string) float64 {
	return t.FactorAt(cat, identifier, time.Now().UnixMilli())
}

// FactorAt computes the factor with an explicit clock, for tests.
func (t *Tracker) FactorAt(cat provider.Category, identifier string, nowMs int64) float64 {
	t.mu.RLock()
	e, ok := t.hot[statKey{cat, identifier}]
	t.mu.RUnlock()
	if !ok {
		return 1.0
	}

	freq := e.score * t.decay(nowMs-e.lastTSMs)
	factor := 1.0 + math.Log1p(freq)
	if factor > maxFactor {
		return maxFactor
	}
	if factor < 1.0 || math.IsNaN(factor) {
		return 1.0
	}
	return factor
}

// RecordLaunch bumps the decayed frequency for a launched candidate:
// score = score*exp(-elapsed/tau) + 1. The write goes to SQLite and the
// in-memory mirror together.
func (t *Tracker) RecordLaunch(ctx context.Context, cat provider.Category, identifier string) error {
	return t.RecordLaunchAt(ctx, cat, identifier, time.Now().UnixMilli())
}

// RecordLaunchAt records a launch with an explicit clock, for tests.
func (t *Tracker) RecordLaunchAt(ctx context.Context, cat provider.Category, identifier string, nowMs int64) error {
	key := statKey{cat, identifier}

	t.mu.Lock()
	defer t.mu.Unlock()

	newScore := 1.0
	if e, ok := t.hot[key]; ok {
		newScore = e.score*t.decay(nowMs-e.lastTSMs) + 1.0
	}

	_, err := t.db.ExecContext(ctx, `
		INSERT INTO usage_stats (category, identifier, score, last_ts_unix_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(category, identifier) DO UPDATE SET
			score = excluded.score,
			last_ts_unix_ms = excluded.last_ts_unix_ms
	`, string(cat), identifier, newScore, nowMs)
	if err != nil {
		return errors.Wrap(err, "recording launch")
	}

	t.hot[key] = statEntry{score: newScore, lastTSMs: nowMs}
	return nil
}

// Entry is a usage row with its decayed score.
type Entry struct {
	Category   provider.Category
	Identifier string
	Score      float64
	LastTSMs   int64
}

// Top returns the highest-scoring entries at the current time.
func (t *Tracker) Top(limit int) []Entry {
	return t.TopAt(limit, time.Now().UnixMilli())
}

// TopAt returns the highest-scoring entries with an explicit clock.
func (t *Tracker) TopAt(limit int, nowMs int64) []Entry {
	t.mu.RLock()
	out := make([]Entry, 0, len(t.hot))
	for k, e := range t.hot {
		out = append(out, Entry{
			Category:   k.category,
			Identifier: k.identifier,
			Score:      e.score * t.decay(nowMs-e.lastTSMs),
			LastTSMs:   e.lastTSMs,
		})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Identifier < out[j].Identifier
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Prune deletes rows whose decayed score fell below threshold, keeping
// the table small. Returns the number of rows removed.
func (t *Tracker) Prune(ctx context.Context, threshold float64) (int64, error) {
	return t.PruneAt(ctx, threshold, time.Now().UnixMilli())
}

// PruneAt prunes with an explicit clock, for tests.
func (t *Tracker) PruneAt(ctx context.Context, threshold float64, nowMs int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed int64
	for k, e := range t.hot {
		if e.score*t.decay(nowMs-e.lastTSMs) >= threshold {
			continue
		}
		res, err := t.db.ExecContext(ctx, `
			DELETE FROM usage_stats WHERE category = ? AND identifier = ?
		`, string(k.category), k.identifier)
		if err != nil {
			return removed, errors.Wrap(err, "pruning usage stats")
		}
		n, _ := res.RowsAffected()
		removed += n
		delete(t.hot, k)
	}
	return removed, nil
}

// TauMs returns the configured decay constant.
func (t *Tracker) TauMs() int64 {
	return t.tauMs
}

func (t *Tracker) decay(elapsedMs int64) float64 {
	if elapsedMs <= 0 {
		return 1.0
	}
	return math.Exp(-float64(elapsedMs) / float64(t.tauMs))
}
