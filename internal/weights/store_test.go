package weights

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runeberg/flare/internal/provider"
	"github.com/runeberg/flare/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := storage.Open(filepath.Join(t.TempDir(), "state.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return NewSQLiteStore(s.DB())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	w := Defaults().Set(provider.CategoryApplication, 1.7).Set(provider.CategoryFile, 0.4)
	require.NoError(t, store.Save(ctx, w))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.7, loaded.For(provider.CategoryApplication))
	assert.Equal(t, 0.4, loaded.For(provider.CategoryFile))
	assert.Equal(t, 0.8, loaded.For(provider.CategoryQuicklink))
}

func TestSQLiteStoreLoadEmptyReturnsDefaults(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.2, loaded.For(provider.CategoryApplication))
	assert.Equal(t, 0.5, loaded.For(provider.CategoryFile))
}

func TestSQLiteStoreOverlayKeepsUntunedDefaults(t *testing.T) {
	ctx := context.Background()
	s, err := storage.Open(filepath.Join(t.TempDir(), "state.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// A single tuned row should not erase the builtin weights.
	_, err = s.DB().Exec(
		`INSERT INTO weights (category, multiplier, updated_at_unix_ms) VALUES ('clipboard', 0.9, 0)`)
	require.NoError(t, err)

	loaded, err := NewSQLiteStore(s.DB()).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.9, loaded.For(provider.CategoryClipboard))
	assert.Equal(t, 1.2, loaded.For(provider.CategoryApplication))
}

func TestSQLiteStoreCorruptRow(t *testing.T) {
	ctx := context.Background()
	s, err := storage.Open(filepath.Join(t.TempDir(), "state.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.DB().Exec(
		`INSERT INTO weights (category, multiplier, updated_at_unix_ms) VALUES ('application', -2, 0)`)
	require.NoError(t, err)

	store := NewSQLiteStore(s.DB())
	_, err = store.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageCorrupt))

	// The fallback path swallows the corruption and hands back defaults.
	w := LoadOrDefaults(ctx, store, nil)
	assert.Equal(t, 1.2, w.For(provider.CategoryApplication))
}

func TestLoadOrDefaultsNilStore(t *testing.T) {
	w := LoadOrDefaults(context.Background(), nil, nil)
	assert.Equal(t, 1.2, w.For(provider.CategoryApplication))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.2, loaded.For(provider.CategoryApplication))

	require.NoError(t, store.Save(ctx, Defaults().Set(provider.CategoryApplication, 2.2)))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.2, loaded.For(provider.CategoryApplication))
}
