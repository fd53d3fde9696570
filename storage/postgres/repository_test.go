package postgres

import (
	"testing"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SQL-builder level tests; upsert semantics against a live server are
// covered by the shared contract the badger backend tests exercise.

func TestUpsertSQLShape(t *testing.T) {
	repo := NewRepository(nil)
	record := &core.ArticleRecord{
		Hash:         "abc123",
		Title:        "A Title",
		Text:         "body",
		CanonicalURL: "http://a.com/x",
	}

	query, args, err := repo.upsertSQL(record, time.Unix(0, 0).UTC()).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO articles")
	assert.Contains(t, query, "ON CONFLICT (hash) DO UPDATE")
	assert.Contains(t, query, "updated_at = EXCLUDED.updated_at")
	// The conflict arm must never touch created_at
	assert.NotContains(t, query, "created_at = EXCLUDED.created_at")
	assert.Contains(t, query, "RETURNING created_at, updated_at")
	assert.Contains(t, query, "$11")
	assert.Len(t, args, 11)
	assert.Equal(t, "abc123", args[0])
}

func TestSelectSQLUsesDollarPlaceholders(t *testing.T) {
	repo := NewRepository(nil)

	query, args, err := repo.builder.
		Select(articleColumns...).
		From(articlesTable).
		OrderBy("updated_at DESC").
		Limit(5).
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "SELECT hash, title")
	assert.Empty(t, args)

	query, args, err = repo.builder.
		Select("hash").
		From(articlesTable).
		Where("canonical_url = ?", "http://a.com/x").
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "canonical_url = $1")
	assert.Equal(t, []any{"http://a.com/x"}, args)
}
