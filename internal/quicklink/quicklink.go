// Package quicklink stores user-defined bookmarks and shell commands in
// SQLite and serves them as search candidates.
package quicklink

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Kind selects how a quicklink target is launched.
type Kind string

const (
	// KindURL opens the target with the platform opener.
	KindURL Kind = "url"
	// KindCommand runs the target as a shell command.
	KindCommand Kind = "command"
)

// ErrNotFound marks lookups that matched no quicklink.
var ErrNotFound = errors.New("quicklink not found")

// Quicklink is one user-defined entry.
type Quicklink struct {
	ID        string
	Name      string
	Keyword   string // optional expansion trigger ("gh" in "gh cobra")
	Kind      Kind
	Target    string // URL or command line, may contain {query}
	CreatedAt time.Time
	Hits      int64
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindURL || k == KindCommand
}

// Store is the quicklinks table access layer. It shares the launcher's
// single-writer database handle.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add validates and inserts a new quicklink, filling ID and CreatedAt.
// Names are unique so Remove and result dedupe stay unambiguous.
func (s *Store) Add(ctx context.Context, ql Quicklink) (Quicklink, error) {
	if ql.Name == "" {
		return Quicklink{}, errors.New("quicklink name is required")
	}
	if ql.Target == "" {
		return Quicklink{}, errors.New("quicklink target is required")
	}
	if ql.Kind == "" {
		ql.Kind = KindURL
	}
	if !ql.Kind.Valid() {
		return Quicklink{}, errors.Newf("unknown quicklink kind %q", ql.Kind)
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quicklinks WHERE name = ?`, ql.Name).Scan(&exists)
	if err != nil {
		return Quicklink{}, errors.Wrap(err, "checking quicklink name")
	}
	if exists > 0 {
		return Quicklink{}, errors.Newf("quicklink %q already exists", ql.Name)
	}

	ql.ID = uuid.NewString()
	ql.CreatedAt = time.Now()
	ql.Hits = 0

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quicklinks (link_id, name, keyword, kind, target, created_at_unix_ms, hits)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, ql.ID, ql.Name, ql.Keyword, string(ql.Kind), ql.Target, ql.CreatedAt.UnixMilli())
	if err != nil {
		return Quicklink{}, errors.Wrap(err, "inserting quicklink")
	}
	return ql, nil
}

// Remove deletes a quicklink by ID or name.
func (s *Store) Remove(ctx context.Context, ref string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM quicklinks WHERE link_id = ? OR name = ?
	`, ref, ref)
	if err != nil {
		return errors.Wrap(err, "deleting quicklink")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting quicklink")
	}
	if n == 0 {
		return errors.Mark(errors.Newf("no quicklink matches %q", ref), ErrNotFound)
	}
	return nil
}

// List returns all quicklinks ordered by name.
func (s *Store) List(ctx context.Context) ([]Quicklink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT link_id, name, keyword, kind, target, created_at_unix_ms, hits
		FROM quicklinks
		ORDER BY name
	`)
	if err != nil {
		return nil, errors.Wrap(err, "listing quicklinks")
	}
	defer rows.Close()

	var out []Quicklink
	for rows.Next() {
		var ql Quicklink
		var kind string
		var createdMs int64
		if err := rows.Scan(&ql.ID, &ql.Name, &ql.Keyword, &kind, &ql.Target, &createdMs, &ql.Hits); err != nil {
			return nil, errors.Wrap(err, "scanning quicklink row")
		}
		ql.Kind = Kind(kind)
		ql.CreatedAt = time.UnixMilli(createdMs)
		out = append(out, ql)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating quicklink rows")
	}
	return out, nil
}

// Get returns a quicklink by ID or name.
func (s *Store) Get(ctx context.Context, ref string) (Quicklink, error) {
	var ql Quicklink
	var kind string
	var createdMs int64
	err := s.db.QueryRowContext(ctx, `
		SELECT link_id, name, keyword, kind, target, created_at_unix_ms, hits
		FROM quicklinks
		WHERE link_id = ? OR name = ?
	`, ref, ref).Scan(&ql.ID, &ql.Name, &ql.Keyword, &kind, &ql.Target, &createdMs, &ql.Hits)
	if errors.Is(err, sql.ErrNoRows) {
		return Quicklink{}, errors.Mark(errors.Newf("no quicklink matches %q", ref), ErrNotFound)
	}
	if err != nil {
		return Quicklink{}, errors.Wrap(err, "loading quicklink")
	}
	ql.Kind = Kind(kind)
	ql.CreatedAt = time.UnixMilli(createdMs)
	return ql, nil
}

// RecordHit bumps the launch counter for a quicklink.
func (s *Store) RecordHit(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE quicklinks SET hits = hits + 1 WHERE link_id = ?
	`, id)
	return errors.Wrap(err, "recording quicklink hit")
}
