package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, storage.ArticleRepository) {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	pipeline, err := NewPipeline(repo, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)
	return pipeline, repo
}

func countStored(t *testing.T, repo storage.ArticleRepository) int {
	t.Helper()
	count := 0
	require.NoError(t, repo.ScanArticles(context.Background(), func(*core.ArticleRecord) error {
		count++
		return nil
	}))
	return count
}

func TestPipelineRunScenario(t *testing.T) {
	var diagnostics bytes.Buffer
	pipeline, repo := newTestPipeline(t, WithDiagnostics(&diagnostics))

	input := strings.Join([]string{
		`{"text":"hello world","url":"http://a.com/x?utm=1"}`,
		`{"text":"another perfectly fine article body","url":"http://a.com/y"}`,
		`{"text":"bad"}`,
		`this line is not json`,
	}, "\n")

	summary, err := pipeline.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Upserts)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 0, summary.Unusable)
	assert.Equal(t, 1, summary.Malformed)
	assert.Equal(t, 2, summary.Skipped())
	assert.Equal(t, 2, countStored(t, repo))

	// Exactly one diagnostic line, carrying the hash and ordered reasons
	lines := strings.Split(strings.TrimSpace(diagnostics.String()), "\n")
	require.Len(t, lines, 1)

	var diag struct {
		Skipped bool     `json:"skipped"`
		Hash    string   `json:"hash"`
		Reasons []string `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &diag))
	assert.True(t, diag.Skipped)
	assert.Equal(t, core.HashFromContent("", "bad"), diag.Hash)
	assert.Equal(t, []string{"text below minimum length", "too few words"}, diag.Reasons)
}

func TestPipelineIsIdempotentAcrossRuns(t *testing.T) {
	pipeline, repo := newTestPipeline(t)
	ctx := context.Background()

	first, err := pipeline.Run(ctx, strings.NewReader(`{"text":"hello world","url":"http://a.com/x?utm=1","title":"A"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Upserts)

	hash := core.HashFromContent("http://a.com/x", "hello world")
	stored, err := repo.GetArticle(ctx, hash)
	require.NoError(t, err)
	createdAt := stored.CreatedAt

	time.Sleep(2 * time.Millisecond)

	// Second run over the same content, different tracking noise and title
	second, err := pipeline.Run(ctx, strings.NewReader(`{"text":"hello world","url":"http://a.com/x?utm_source=feed","title":"B"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Upserts)

	assert.Equal(t, 1, countStored(t, repo))

	stored, err = repo.GetArticle(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Title)
	assert.True(t, stored.CreatedAt.Equal(createdAt), "CreatedAt changed across runs")
	assert.True(t, stored.UpdatedAt.After(createdAt), "UpdatedAt did not advance")
}

func TestPipelineSkipsUnusableRecords(t *testing.T) {
	pipeline, repo := newTestPipeline(t)

	summary, err := pipeline.Run(context.Background(), strings.NewReader(`{"text":""}`))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Upserts)
	assert.Equal(t, 1, summary.Unusable)
	assert.Equal(t, 0, countStored(t, repo))
}

func TestPipelineRejectedRecordsAreNeverPersisted(t *testing.T) {
	var diagnostics bytes.Buffer
	pipeline, repo := newTestPipeline(t, WithDiagnostics(&diagnostics), WithPolicy(&Policy{
		MinTextLength:        1000,
		MinWordCount:         2,
		MinDistinctWordRatio: 0.2,
	}))

	summary, err := pipeline.Run(context.Background(), strings.NewReader(`{"text":"hello world","url":"http://a.com/x"}`))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Upserts)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 0, countStored(t, repo))

	_, err = repo.GetArticle(context.Background(), core.HashFromContent("http://a.com/x", "hello world"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipelineConcurrentWorkers(t *testing.T) {
	pipeline, repo := newTestPipeline(t, WithPoolSize(8))

	var input strings.Builder
	for i := 0; i < 100; i++ {
		input.WriteString(`{"text":"a sufficiently wordy body number `)
		input.WriteString(strings.Repeat("x", i%7))
		input.WriteString(`","url":"http://a.com/p/`)
		input.WriteString(string(rune('a' + i%26)))
		input.WriteString(string(rune('a' + i/26)))
		input.WriteString(`"}` + "\n")
	}

	summary, err := pipeline.Run(context.Background(), strings.NewReader(input.String()))
	require.NoError(t, err)

	assert.Equal(t, 100, summary.Upserts)
	assert.Equal(t, 100, countStored(t, repo))
}

// failingRepository simulates a store that accepts connections but fails
// every write.
type failingRepository struct {
	ensureErr error
	upsertErr error
}

var _ storage.ArticleRepository = (*failingRepository)(nil)

func (f *failingRepository) EnsureIndexes(ctx context.Context) error {
	return f.ensureErr
}

func (f *failingRepository) UpsertArticles(ctx context.Context, records ...*core.ArticleRecord) ([]*core.ArticleRecord, error) {
	return nil, f.upsertErr
}

func (f *failingRepository) GetArticle(ctx context.Context, hash string) (*core.ArticleRecord, error) {
	return nil, storage.ErrNotFound
}

func (f *failingRepository) GetArticleByURL(ctx context.Context, canonicalURL string) (*core.ArticleRecord, error) {
	return nil, storage.ErrNotFound
}

func (f *failingRepository) GetRecentArticles(ctx context.Context, limit int) ([]*core.ArticleRecord, error) {
	return nil, nil
}

func (f *failingRepository) ScanArticles(ctx context.Context, fn func(*core.ArticleRecord) error) error {
	return nil
}

func (f *failingRepository) Close() error { return nil }

func TestPipelineAbortsOnStoreFailure(t *testing.T) {
	repo := &failingRepository{upsertErr: errors.New("connection reset")}
	pipeline, err := NewPipeline(repo)
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Run(context.Background(), strings.NewReader(`{"text":"hello world","url":"http://a.com/x"}`))
	assert.ErrorIs(t, err, ErrStoreFailed)
}

func TestPipelineFatalOnEnsureIndexes(t *testing.T) {
	sentinel := errors.New("cannot reach store")
	repo := &failingRepository{ensureErr: sentinel}
	pipeline, err := NewPipeline(repo)
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Run(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, sentinel)
}
