package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/hireloop/hireloop/internal/core/ports"
)

// Repository persists profiles, jobs, applications, match results, shared
// memory, and settings in a single DuckDB file. Scalars live in columns;
// nested structures are stored as JSON text.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at path and applies the
// schema. An empty path opens an in-memory database, which tests use.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb at %q: %w", path, err)
	}

	r := &Repository{db: db}
	if err := r.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return r, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Ensure Repository implements the storage ports
var (
	_ ports.Repository    = (*Repository)(nil)
	_ ports.MemoryBackend = (*Repository)(nil)
)

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id     TEXT PRIMARY KEY,
			personal    TEXT NOT NULL,
			preferences TEXT NOT NULL,
			filters     TEXT NOT NULL,
			resume      TEXT,
			updated_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			company         TEXT NOT NULL,
			location        TEXT,
			remote_status   TEXT,
			salary_min      INTEGER,
			salary_max      INTEGER,
			description     TEXT,
			requirements    TEXT,
			posted_at       TIMESTAMP,
			application_url TEXT,
			source_url      TEXT,
			scraped_at      TIMESTAMP,
			status          TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			job_id          TEXT NOT NULL,
			status          TEXT NOT NULL,
			match_score     INTEGER NOT NULL,
			tailored_resume TEXT,
			cover_letter    TEXT,
			form_answers    TEXT,
			created_at      TIMESTAMP NOT NULL,
			updated_at      TIMESTAMP NOT NULL,
			submitted_at    TIMESTAMP,
			timeline        TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			user_id     TEXT NOT NULL,
			job_id      TEXT NOT NULL,
			score       INTEGER NOT NULL,
			highlights  TEXT NOT NULL,
			computed_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, job_id)
		)`,
		`CREATE TABLE IF NOT EXISTS memory (
			user_id    TEXT PRIMARY KEY,
			doc        TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *Repository) SaveSetting(ctx context.Context, key string, value string) error {
	query := `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value;
	`
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}
