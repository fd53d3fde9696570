package storage

import (
	"testing"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalArticleRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.ArticleRecord
	}{
		{
			name: "minimal record",
			record: &core.ArticleRecord{
				Hash:      core.HashFromContent("http://a.com/x", "hello world"),
				Text:      "hello world",
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		{
			name: "full record",
			record: &core.ArticleRecord{
				Hash:           "abc123",
				Title:          "A Title",
				Description:    "Short description",
				Text:           "The body of the article, long enough to matter.",
				CanonicalURL:   "http://a.com/x",
				Source:         "feed:example",
				Lang:           "en",
				ReadingMinutes: 3,
				Quality:        core.Quality{Checks: []string{"text below minimum length", "too few words"}},
				CreatedAt:      now.Add(-time.Hour),
				UpdatedAt:      now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalArticleRecord(tt.record)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalArticleRecord(data)
			require.NoError(t, err)
			assert.Equal(t, tt.record, decoded)
		})
	}
}

// Every field written by Marshal must be consumed by Unmarshal in the
// same order; a skipped field shifts everything after it.
func TestUnmarshalArticleRecord_FieldOrder(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)
	record := &core.ArticleRecord{
		Hash:           "abc123",
		Text:           "hello world",
		Lang:           "en",
		ReadingMinutes: 7,
		Quality:        core.Quality{Checks: []string{"low information density"}},
		CreatedAt:      created,
		UpdatedAt:      updated,
	}

	decoded, err := UnmarshalArticleRecord(MarshalArticleRecord(record))
	require.NoError(t, err)
	assert.Equal(t, 7, decoded.ReadingMinutes)
	assert.Equal(t, []string{"low information density"}, decoded.Quality.Checks)
	assert.True(t, decoded.CreatedAt.Equal(created), "CreatedAt decoded as %v", decoded.CreatedAt)
	assert.True(t, decoded.UpdatedAt.Equal(updated), "UpdatedAt decoded as %v", decoded.UpdatedAt)

	// ReadingMinutes of zero must not be mistaken for the checks count
	zero := &core.ArticleRecord{Hash: "abc123", Text: "hello world", CreatedAt: created, UpdatedAt: updated}
	decoded, err = UnmarshalArticleRecord(MarshalArticleRecord(zero))
	require.NoError(t, err)
	assert.Equal(t, 0, decoded.ReadingMinutes)
	assert.True(t, decoded.CreatedAt.Equal(created), "CreatedAt decoded as %v", decoded.CreatedAt)
}

func TestUnmarshalArticleRecord_Truncated(t *testing.T) {
	record := &core.ArticleRecord{
		Hash:      "abc123",
		Text:      "hello world",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	data := MarshalArticleRecord(record)

	_, err := UnmarshalArticleRecord(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
