// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package postgres implements storage.ArticleRepository on PostgreSQL,
// for deployments where the store is shared between processes. The upsert
// relies on INSERT ... ON CONFLICT so it is atomic per key at the server.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

const articlesTable = "articles"

var articleColumns = []string{
	"hash", "title", "description", "text", "canonical_url",
	"source", "lang", "reading_minutes", "quality_checks",
	"created_at", "updated_at",
}

// Repository implements storage.ArticleRepository for PostgreSQL.
type Repository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ storage.ArticleRepository = (*Repository)(nil)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, connURL string) (*Repository, error) {
	db, err := sql.Open("postgres", connURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewRepository(db), nil
}

// NewRepository wires an existing sql.DB handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Close closes the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// EnsureIndexes creates the articles table, its hash uniqueness constraint
// and the canonical URL lookup index if they do not exist yet.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			hash            TEXT PRIMARY KEY,
			title           TEXT NOT NULL DEFAULT '',
			description     TEXT NOT NULL DEFAULT '',
			text            TEXT NOT NULL,
			canonical_url   TEXT NOT NULL DEFAULT '',
			source          TEXT NOT NULL DEFAULT '',
			lang            TEXT NOT NULL DEFAULT '',
			reading_minutes INTEGER NOT NULL DEFAULT 0,
			quality_checks  TEXT[] NOT NULL DEFAULT '{}',
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS articles_canonical_url_idx ON articles (canonical_url)`,
		`CREATE INDEX IF NOT EXISTS articles_updated_at_idx ON articles (updated_at DESC)`,
	}
	for _, statement := range statements {
		if _, err := r.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("ensure articles schema: %w", err)
		}
	}
	return nil
}

// upsertSQL builds the single-statement upsert for one record.
// CreatedAt is only written by the insert arm; the conflict arm leaves it
// untouched so it stays fixed at first insert.
func (r *Repository) upsertSQL(record *core.ArticleRecord, now time.Time) sq.InsertBuilder {
	checks := record.Quality.Checks
	if checks == nil {
		// pq.Array encodes a nil slice as NULL, which the column rejects
		checks = []string{}
	}
	return r.builder.
		Insert(articlesTable).
		Columns(articleColumns...).
		Values(
			record.Hash, record.Title, record.Description, record.Text,
			record.CanonicalURL, record.Source, record.Lang,
			record.ReadingMinutes, pq.Array(checks),
			now, now,
		).
		Suffix(`ON CONFLICT (hash) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			text = EXCLUDED.text,
			canonical_url = EXCLUDED.canonical_url,
			source = EXCLUDED.source,
			lang = EXCLUDED.lang,
			reading_minutes = EXCLUDED.reading_minutes,
			quality_checks = EXCLUDED.quality_checks,
			updated_at = EXCLUDED.updated_at
			RETURNING created_at, updated_at`)
}

// UpsertArticles idempotently persists records keyed by hash.
func (r *Repository) UpsertArticles(ctx context.Context, records ...*core.ArticleRecord) ([]*core.ArticleRecord, error) {
	for _, record := range records {
		if err := core.ValidateArticleRecord(record); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		row := r.upsertSQL(record, now).RunWith(r.db).QueryRowContext(ctx)

		var createdAt, updatedAt time.Time
		if err := row.Scan(&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("upsert %s: %w", record.Hash, err)
		}
		record.CreatedAt = createdAt.UTC()
		record.UpdatedAt = updatedAt.UTC()
	}
	return records, nil
}

// GetArticle retrieves a single record by hash.
func (r *Repository) GetArticle(ctx context.Context, hash string) (*core.ArticleRecord, error) {
	row := r.builder.
		Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"hash": hash}).
		RunWith(r.db).
		QueryRowContext(ctx)
	return scanArticle(row)
}

// GetArticleByURL retrieves the most recently updated record carrying the
// canonical URL.
func (r *Repository) GetArticleByURL(ctx context.Context, canonicalURL string) (*core.ArticleRecord, error) {
	row := r.builder.
		Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"canonical_url": canonicalURL}).
		OrderBy("updated_at DESC").
		Limit(1).
		RunWith(r.db).
		QueryRowContext(ctx)
	return scanArticle(row)
}

// GetRecentArticles retrieves up to limit records ordered by UpdatedAt
// descending.
func (r *Repository) GetRecentArticles(ctx context.Context, limit int) ([]*core.ArticleRecord, error) {
	rows, err := r.builder.
		Select(articleColumns...).
		From(articlesTable).
		OrderBy("updated_at DESC").
		Limit(uint64(limit)).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*core.ArticleRecord
	for rows.Next() {
		record, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	return results, rows.Err()
}

// ScanArticles visits every stored record.
func (r *Repository) ScanArticles(ctx context.Context, fn func(*core.ArticleRecord) error) error {
	rows, err := r.builder.
		Select(articleColumns...).
		From(articlesTable).
		OrderBy("hash").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanArticle(rows)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return rows.Err()
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*core.ArticleRecord, error) {
	var record core.ArticleRecord
	err := row.Scan(
		&record.Hash, &record.Title, &record.Description, &record.Text,
		&record.CanonicalURL, &record.Source, &record.Lang,
		&record.ReadingMinutes, pq.Array(&record.Quality.Checks),
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return &record, nil
}
