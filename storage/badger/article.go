package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// Badger aborts conflicting SSI transactions instead of blocking, so an
// upsert that loses a race is retried until it commits.
const maxCommitRetries = 32

// ArticleRepository implements storage.ArticleRepository for BadgerDB.
type ArticleRepository struct {
	backend *Backend
}

var _ storage.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(backend *Backend) *ArticleRepository {
	return &ArticleRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ArticleRepository) Close() error {
	return nil
}

// EnsureIndexes verifies the store is open and writable. BadgerDB has no
// schema to create; the hash keyspace and the URL/date index keyspaces are
// maintained inline by UpsertArticles.
func (r *ArticleRepository) EnsureIndexes(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeArticleKey("probe"))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	}, false)
}

// UpsertArticles idempotently persists records keyed by hash.
// Each record is written in its own transaction so one bad record cannot
// roll back its neighbors.
func (r *ArticleRepository) UpsertArticles(ctx context.Context, records ...*core.ArticleRecord) ([]*core.ArticleRecord, error) {
	for _, record := range records {
		if err := core.ValidateArticleRecord(record); err != nil {
			return nil, err
		}
		if err := r.upsertOne(ctx, record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// upsertOne writes a single record inside one serializable transaction,
// retrying on commit conflicts so concurrent writers for the same hash
// converge to exactly one row.
func (r *ArticleRepository) upsertOne(ctx context.Context, record *core.ArticleRecord) error {
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			key := makeArticleKey(record.Hash)
			old, err := readArticle(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			if old == nil {
				record.CreatedAt = now
			} else {
				// CreatedAt is fixed at first insert
				record.CreatedAt = old.CreatedAt

				if err := tx.Delete(makeArticleDateKey(old.UpdatedAt, old.Hash)); err != nil {
					return err
				}
				if old.CanonicalURL != "" && old.CanonicalURL != record.CanonicalURL {
					if err := tx.Delete(makeArticleURLKey(old.CanonicalURL)); err != nil {
						return err
					}
				}
			}
			record.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalArticleRecord(record)); err != nil {
				return err
			}
			if record.CanonicalURL != "" {
				if err := tx.Set(makeArticleURLKey(record.CanonicalURL), []byte(record.Hash)); err != nil {
					return err
				}
			}
			if err := tx.Set(makeArticleDateKey(record.UpdatedAt, record.Hash), []byte(record.Hash)); err != nil {
				return err
			}

			return tx.Commit()
		}, true)

		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: upsert of %s kept conflicting", storage.ErrTransactionFailed, record.Hash)
}

// GetArticle retrieves a single record by hash.
func (r *ArticleRepository) GetArticle(ctx context.Context, hash string) (*core.ArticleRecord, error) {
	var result *core.ArticleRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readArticle(tx, makeArticleKey(hash))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetArticleByURL retrieves a record through the canonical URL index.
func (r *ArticleRepository) GetArticleByURL(ctx context.Context, canonicalURL string) (*core.ArticleRecord, error) {
	var result *core.ArticleRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeArticleURLKey(canonicalURL))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var hash string
		if err := item.Value(func(val []byte) error {
			hash = string(val)
			return nil
		}); err != nil {
			return err
		}

		result, err = readArticle(tx, makeArticleKey(hash))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRecentArticles retrieves up to limit records ordered by UpdatedAt
// descending.
func (r *ArticleRepository) GetRecentArticles(ctx context.Context, limit int) ([]*core.ArticleRecord, error) {
	var results []*core.ArticleRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recently updated records first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible date key
		startKey := makePartialArticleDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(articleDatePrefix + ":")

		count := 0
		for iter.Seek(startKey); iter.Valid() && count < limit; iter.Next() {
			key := iter.Item().Key()

			// Check if we're still in the date index
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var hash string
			if err := iter.Item().Value(func(val []byte) error {
				hash = string(val)
				return nil
			}); err != nil {
				return err
			}

			record, err := readArticle(tx, makeArticleKey(hash))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
				count++
			}
		}
		return nil
	}, false)

	return results, err
}

// ScanArticles visits every stored record in hash order.
func (r *ArticleRepository) ScanArticles(ctx context.Context, fn func(*core.ArticleRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		// The trailing colon keeps the URL and date index keyspaces out
		opts.Prefix = []byte(articleRecordPrefix + ":")

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.ArticleRecord
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalArticleRecord(val)
				return err
			}); err != nil {
				return err
			}

			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readArticle reads an article record from the transaction.
// Returns nil without error when the key is absent.
func readArticle(tx *badger.Txn, key []byte) (*core.ArticleRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ArticleRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalArticleRecord(val)
		return unmarshalErr
	})
	return record, err
}
