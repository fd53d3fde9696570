package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

func newTestRecord(url, text string) *core.ArticleRecord {
	return &core.ArticleRecord{
		Hash:         core.HashFromContent(url, text),
		Text:         text,
		CanonicalURL: url,
	}
}

func TestArticleRepositoryBasics(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("Failed to ensure indexes: %v", err)
	}

	record := newTestRecord("http://a.com/x", "hello world")
	record.Title = "Hello"

	upserted, err := repo.UpsertArticles(ctx, record)
	if err != nil {
		t.Fatalf("Failed to upsert article: %v", err)
	}
	if len(upserted) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(upserted))
	}
	if upserted[0].CreatedAt.IsZero() || upserted[0].UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be populated")
	}

	retrieved, err := repo.GetArticle(ctx, record.Hash)
	if err != nil {
		t.Fatalf("Failed to get article: %v", err)
	}
	if retrieved.Title != "Hello" {
		t.Fatalf("Expected 'Hello', got '%s'", retrieved.Title)
	}

	byURL, err := repo.GetArticleByURL(ctx, "http://a.com/x")
	if err != nil {
		t.Fatalf("Failed to get article by URL: %v", err)
	}
	if byURL.Hash != record.Hash {
		t.Fatalf("URL index returned wrong record: %s", byURL.Hash)
	}
}

func TestArticleRepositoryUpsertIsIdempotent(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	first := newTestRecord("http://a.com/x", "hello world")
	first.Title = "A"
	if _, err := repo.UpsertArticles(ctx, first); err != nil {
		t.Fatalf("Failed initial upsert: %v", err)
	}
	createdAt := first.CreatedAt

	time.Sleep(2 * time.Millisecond)

	second := newTestRecord("http://a.com/x", "hello world")
	second.Title = "B"
	if second.Hash != first.Hash {
		t.Fatalf("Identity derivation is not deterministic: %s vs %s", first.Hash, second.Hash)
	}
	if _, err := repo.UpsertArticles(ctx, second); err != nil {
		t.Fatalf("Failed repeat upsert: %v", err)
	}

	stored, err := repo.GetArticle(ctx, first.Hash)
	if err != nil {
		t.Fatalf("Failed to get article: %v", err)
	}

	// Last write wins on mutable fields
	if stored.Title != "B" {
		t.Fatalf("Expected title 'B', got '%s'", stored.Title)
	}
	// CreatedAt is fixed at first insert, UpdatedAt advances
	if !stored.CreatedAt.Equal(createdAt) {
		t.Fatalf("CreatedAt changed on update: %v vs %v", stored.CreatedAt, createdAt)
	}
	if !stored.UpdatedAt.After(stored.CreatedAt) {
		t.Fatalf("UpdatedAt did not advance: %v vs %v", stored.UpdatedAt, stored.CreatedAt)
	}

	// Exactly one row for the identity
	count := 0
	if err := repo.ScanArticles(ctx, func(*core.ArticleRecord) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("Failed to scan articles: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected exactly 1 stored row, got %d", count)
	}
}

func TestArticleRepositoryConcurrentUpsertsConverge(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record := newTestRecord("http://a.com/x", "hello world")
			record.Title = fmt.Sprintf("writer-%d", i)
			if _, err := repo.UpsertArticles(ctx, record); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Concurrent upsert failed: %v", err)
	}

	count := 0
	if err := repo.ScanArticles(ctx, func(*core.ArticleRecord) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("Failed to scan articles: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected concurrent upserts to converge to 1 row, got %d", count)
	}
}

func TestArticleRepositoryNotFound(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	if _, err := repo.GetArticle(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetArticleByURL(ctx, "http://nope.invalid/"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestArticleRepositoryRecentOrdering(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		record := newTestRecord(fmt.Sprintf("http://a.com/%d", i), fmt.Sprintf("body %d", i))
		if _, err := repo.UpsertArticles(ctx, record); err != nil {
			t.Fatalf("Failed to upsert article %d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	recent, err := repo.GetRecentArticles(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to get recent articles: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recent))
	}
	if recent[0].CanonicalURL != "http://a.com/2" || recent[1].CanonicalURL != "http://a.com/1" {
		t.Fatalf("Recent ordering wrong: %s, %s", recent[0].CanonicalURL, recent[1].CanonicalURL)
	}
}

func TestArticleRepositoryRejectsInvalidRecord(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	if _, err := repo.UpsertArticles(ctx, &core.ArticleRecord{Text: "no hash"}); !errors.Is(err, core.ErrEmptyHash) {
		t.Fatalf("Expected ErrEmptyHash, got %v", err)
	}
}
