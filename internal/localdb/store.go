// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package localdb is a SQLite mirror of the host CMS: posts, their custom
// fields, taxonomies and terms. It implements the same host operations as
// the WordPress client so popup runs can be staged and tested offline.
package localdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/popup-generator/pkg/types"
)

const defaultDBPath = "data/popup.db"

// ErrPostNotFound reports a post ID the mirror does not hold.
var ErrPostNotFound = errors.New("post not found")

// Store manages the mirror database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the mirror database at cfg.DBPath and creates
// the schema if it does not exist.
func NewStore(cfg types.LocalConfig) (*Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS taxonomies (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_type TEXT NOT NULL,
			status TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_type_status ON posts(post_type, status)`,
		`CREATE TABLE IF NOT EXISTS post_fields (
			post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			field_key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (post_id, field_key)
		)`,
		`CREATE TABLE IF NOT EXISTS terms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			taxonomy TEXT NOT NULL REFERENCES taxonomies(name),
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			UNIQUE (taxonomy, slug)
		)`,
		`CREATE TABLE IF NOT EXISTS term_relationships (
			post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			term_id INTEGER NOT NULL REFERENCES terms(id) ON DELETE CASCADE,
			taxonomy TEXT NOT NULL,
			PRIMARY KEY (post_id, term_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Name identifies the mirror in logs.
func (s *Store) Name() string { return string(types.HostLocal) }

// Preflight checks the database is reachable. The mirror has no accounts,
// so there is nothing to authorise.
func (s *Store) Preflight(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Locations returns posts of q.PostType with status q.Status in ID order.
func (s *Store) Locations(ctx context.Context, q types.LocationQuery) ([]types.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status, post_type, content FROM posts
		 WHERE post_type = ? AND status = ? ORDER BY id`,
		q.PostType, q.Status)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var locs []types.Location
	for rows.Next() {
		var l types.Location
		if err := rows.Scan(&l.ID, &l.Title, &l.Status, &l.PostType, &l.Content); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

// SaveFields upserts each top-level key of values as a JSON document.
// Keys not present in values are left untouched.
func (s *Store) SaveFields(ctx context.Context, postID int64, values types.FieldValues) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := postExists(ctx, tx, postID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO post_fields (post_id, field_key, value) VALUES (?, ?, ?)
		 ON CONFLICT(post_id, field_key) DO UPDATE SET value=excluded.value`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding field %s: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, postID, key, string(data)); err != nil {
			return fmt.Errorf("saving field %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// TaxonomyExists reports whether taxonomy was registered.
func (s *Store) TaxonomyExists(ctx context.Context, taxonomy string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM taxonomies WHERE name = ?`, taxonomy).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking taxonomy: %w", err)
	}
	return n > 0, nil
}

// RegisterTaxonomy adds taxonomy if it is not already registered.
func (s *Store) RegisterTaxonomy(ctx context.Context, taxonomy string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO taxonomies (name) VALUES (?)`, taxonomy)
	if err != nil {
		return fmt.Errorf("registering taxonomy %s: %w", taxonomy, err)
	}
	return nil
}

// FindTerm returns the term with slug in taxonomy, or nil if none exists.
func (s *Store) FindTerm(ctx context.Context, taxonomy, slug string) (*types.Term, error) {
	t := types.Term{Taxonomy: taxonomy}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slug, name FROM terms WHERE taxonomy = ? AND slug = ?`,
		taxonomy, slug).Scan(&t.ID, &t.Slug, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding term: %w", err)
	}
	return &t, nil
}

// CreateTerm inserts a term. The taxonomy must be registered and the slug
// unused within it.
func (s *Store) CreateTerm(ctx context.Context, taxonomy, name, slug string) (types.Term, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO terms (taxonomy, slug, name) VALUES (?, ?, ?)`, taxonomy, slug, name)
	if err != nil {
		return types.Term{}, fmt.Errorf("inserting term %s: %w", slug, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Term{}, fmt.Errorf("reading term id: %w", err)
	}
	return types.Term{ID: id, Taxonomy: taxonomy, Slug: slug, Name: name}, nil
}

// SetTerms replaces the post's terms in taxonomy with termIDs.
func (s *Store) SetTerms(ctx context.Context, postID int64, taxonomy string, termIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := postExists(ctx, tx, postID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM term_relationships WHERE post_id = ? AND taxonomy = ?`, postID, taxonomy); err != nil {
		return fmt.Errorf("clearing terms: %w", err)
	}

	for _, id := range termIDs {
		var termTaxonomy string
		err := tx.QueryRowContext(ctx, `SELECT taxonomy FROM terms WHERE id = ?`, id).Scan(&termTaxonomy)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("term %d does not exist", id)
		}
		if err != nil {
			return fmt.Errorf("reading term %d: %w", id, err)
		}
		if termTaxonomy != taxonomy {
			return fmt.Errorf("term %d belongs to %s, not %s", id, termTaxonomy, taxonomy)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO term_relationships (post_id, term_id, taxonomy) VALUES (?, ?, ?)`,
			postID, id, taxonomy); err != nil {
			return fmt.Errorf("assigning term %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// AddLocation inserts a post and returns its ID. Empty status defaults to
// "publish".
func (s *Store) AddLocation(ctx context.Context, loc types.Location) (int64, error) {
	if loc.Status == "" {
		loc.Status = "publish"
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (post_type, status, title, content) VALUES (?, ?, ?, ?)`,
		loc.PostType, loc.Status, loc.Title, loc.Content)
	if err != nil {
		return 0, fmt.Errorf("inserting post %q: %w", loc.Title, err)
	}
	return res.LastInsertId()
}

// Fields returns the stored custom fields of a post. Nested objects come
// back as FieldValues; numbers as float64.
func (s *Store) Fields(ctx context.Context, postID int64) (types.FieldValues, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field_key, value FROM post_fields WHERE post_id = ? ORDER BY field_key`, postID)
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}
	defer rows.Close()

	out := types.FieldValues{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decoding field %s: %w", key, err)
		}
		out[key] = asFieldValues(v)
	}
	return out, rows.Err()
}

// Terms returns the terms assigned to a post in taxonomy, ordered by slug.
func (s *Store) Terms(ctx context.Context, postID int64, taxonomy string) ([]types.Term, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.taxonomy, t.slug, t.name FROM term_relationships r
		 JOIN terms t ON t.id = r.term_id
		 WHERE r.post_id = ? AND r.taxonomy = ? ORDER BY t.slug`, postID, taxonomy)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	var terms []types.Term
	for rows.Next() {
		var t types.Term
		if err := rows.Scan(&t.ID, &t.Taxonomy, &t.Slug, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func postExists(ctx context.Context, tx *sql.Tx, postID int64) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM posts WHERE id = ?`, postID).Scan(&n); err != nil {
		return fmt.Errorf("checking post %d: %w", postID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrPostNotFound, postID)
	}
	return nil
}

func asFieldValues(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(types.FieldValues, len(m))
	for k, child := range m {
		out[k] = asFieldValues(child)
	}
	return out
}
