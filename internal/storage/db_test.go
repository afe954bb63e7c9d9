package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"schema_meta", "weights", "usage_stats", "quicklinks"} {
		var name string
		err := s.DB().QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}

	var version int
	err := s.DB().QueryRow(`SELECT MAX(version) FROM schema_meta`).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestOpenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	s1, err := Open(dbPath, nil)
	require.NoError(t, err)
	_, err = s1.DB().Exec(
		`INSERT INTO weights (category, multiplier, updated_at_unix_ms) VALUES ('application', 1.5, 0)`,
	)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Re-opening must not re-run migrations or lose data.
	s2, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer s2.Close()

	var multiplier float64
	err = s2.DB().QueryRow(`SELECT multiplier FROM weights WHERE category='application'`).Scan(&multiplier)
	require.NoError(t, err)
	assert.Equal(t, 1.5, multiplier)
}

func TestCloseTwice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(dbPath, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestQuicklinksHaveHitsColumn(t *testing.T) {
	s := openTestStore(t)

	_, err := s.DB().Exec(`
		INSERT INTO quicklinks (link_id, name, keyword, kind, target, created_at_unix_ms)
		VALUES ('ql-1', 'Issue Tracker', 'it', 'url', 'https://example.com/issues', 0)
	`)
	require.NoError(t, err)

	var hits int
	err = s.DB().QueryRow(`SELECT hits FROM quicklinks WHERE link_id='ql-1'`).Scan(&hits)
	require.NoError(t, err)
	assert.Equal(t, 0, hits)
}
