package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	// modernc.org/sqlite registers the "sqlite" driver.
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

// DB is the sqlite-backed reference implementation of the legal code CRUD service.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("open store: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps pragmas per-connection and serializes writers.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", strings.TrimSuffix(p, ";"), err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{db: db, now: time.Now}, nil
}

func (s *DB) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable (health checks).
func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sections (
			id TEXT PRIMARY KEY,
			order_number INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chapters (
			id TEXT PRIMARY KEY,
			section_id TEXT NOT NULL REFERENCES sections(id) ON DELETE CASCADE,
			order_number INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chapters_section ON chapters(section_id, order_number);`,
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			chapter_id TEXT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			number TEXT NOT NULL,
			title TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_chapter ON articles(chapter_id, position);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func (s *DB) stamp() int64 {
	return s.now().UTC().UnixMilli()
}
