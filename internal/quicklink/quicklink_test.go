package quicklink

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runeberg/flare/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "quicklinks.db")
	db, err := storage.Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStore(db.DB())
}

func TestAddAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	added, err := store.Add(ctx, Quicklink{
		Name:    "GitHub",
		Keyword: "gh",
		Kind:    KindURL,
		Target:  "https://github.com/search?q={query}",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.False(t, added.CreatedAt.IsZero())

	byName, err := store.Get(ctx, "GitHub")
	require.NoError(t, err)
	assert.Equal(t, added.ID, byName.ID)
	assert.Equal(t, "gh", byName.Keyword)
	assert.Equal(t, KindURL, byName.Kind)

	byID, err := store.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "GitHub", byID.Name)
}

func TestAddValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, Quicklink{Target: "https://example.com"})
	assert.Error(t, err, "missing name")

	_, err = store.Add(ctx, Quicklink{Name: "x"})
	assert.Error(t, err, "missing target")

	_, err = store.Add(ctx, Quicklink{Name: "x", Target: "t", Kind: "telepathy"})
	assert.Error(t, err, "unknown kind")

	// Empty kind defaults to URL.
	added, err := store.Add(ctx, Quicklink{Name: "plain", Target: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, KindURL, added.Kind)
}

func TestAddRejectsDuplicateName(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, Quicklink{Name: "Mail", Target: "https://mail.example.com"})
	require.NoError(t, err)

	_, err = store.Add(ctx, Quicklink{Name: "Mail", Target: "https://other.example.com"})
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	added, err := store.Add(ctx, Quicklink{Name: "Docs", Target: "https://docs.example.com"})
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, added.ID))

	_, err = store.Get(ctx, "Docs")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Remove(ctx, "Docs")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersByName(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := store.Add(ctx, Quicklink{Name: name, Target: "https://example.com/" + name})
		require.NoError(t, err)
	}

	links, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "alpha", links[0].Name)
	assert.Equal(t, "mid", links[1].Name)
	assert.Equal(t, "zeta", links[2].Name)
}

func TestRecordHit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	added, err := store.Add(ctx, Quicklink{Name: "Wiki", Target: "https://wiki.example.com"})
	require.NoError(t, err)

	require.NoError(t, store.RecordHit(ctx, added.ID))
	require.NoError(t, store.RecordHit(ctx, added.ID))

	got, err := store.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Hits)
}

func TestExpandTarget(t *testing.T) {
	t.Parallel()

	// URL remainders are percent-encoded.
	got := expandTarget(KindURL, "https://github.com/search?q={query}", "go launcher")
	assert.Equal(t, "https://github.com/search?q=go+launcher", got)

	// Command remainders stay raw.
	got = expandTarget(KindCommand, "grep -r {query} .", "TODO")
	assert.Equal(t, "grep -r TODO .", got)

	// No placeholder: target unchanged.
	got = expandTarget(KindURL, "https://example.com", "ignored")
	assert.Equal(t, "https://example.com", got)
}
