package storage

import (
	"context"

	"github.com/poiesic/corpus/core"
)

// ArticleRepository provides operations for managing stored article records.
// Implementations must be thread-safe and support concurrent access.
type ArticleRepository interface {
	// EnsureIndexes establishes the uniqueness constraint on hash and the
	// secondary lookup index on canonical URL. It must be called before the
	// first record is processed; failure is fatal to the run.
	EnsureIndexes(ctx context.Context) error

	// UpsertArticles idempotently persists one or more article records,
	// keyed by Hash. Inserts set CreatedAt = UpdatedAt = now; updates
	// overwrite the mutable fields and advance UpdatedAt, leaving CreatedAt
	// untouched. Atomic per key; safe to retry.
	// Returns the records with timestamps populated.
	UpsertArticles(ctx context.Context, records ...*core.ArticleRecord) ([]*core.ArticleRecord, error)

	// GetArticle retrieves a single record by hash.
	// Returns ErrNotFound if the record doesn't exist.
	GetArticle(ctx context.Context, hash string) (*core.ArticleRecord, error)

	// GetArticleByURL retrieves a record through the canonical URL index.
	// Returns ErrNotFound if no record carries the URL.
	GetArticleByURL(ctx context.Context, canonicalURL string) (*core.ArticleRecord, error)

	// GetRecentArticles retrieves up to limit records ordered by UpdatedAt
	// descending.
	GetRecentArticles(ctx context.Context, limit int) ([]*core.ArticleRecord, error)

	// ScanArticles visits every stored record. Iteration stops at the first
	// error returned by fn, which is propagated to the caller.
	ScanArticles(ctx context.Context, fn func(*core.ArticleRecord) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}
