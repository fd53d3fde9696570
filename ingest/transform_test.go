package ingest

import (
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformDerivesIdentity(t *testing.T) {
	transformer := NewTransformer(nil)

	record, err := transformer.Transform(core.RawArticle{
		Text: "hello world",
		URL:  "http://a.com/x?utm=1",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://a.com/x", record.CanonicalURL)
	assert.Equal(t, core.HashFromContent("http://a.com/x", "hello world"), record.Hash)
	assert.Equal(t, 1, record.ReadingMinutes)
	assert.Empty(t, record.Lang)
}

func TestTransformIdentityIgnoresIncidentalFields(t *testing.T) {
	transformer := NewTransformer(nil)

	a, err := transformer.Transform(core.RawArticle{
		Text: "hello world", URL: "http://a.com/x", Title: "A",
	})
	require.NoError(t, err)
	b, err := transformer.Transform(core.RawArticle{
		Text: "hello world", URL: "http://a.com/x?utm_source=feed", Title: "B", Description: "other",
	})
	require.NoError(t, err)

	// Tracking noise and metadata differences don't change identity
	assert.Equal(t, a.Hash, b.Hash)

	c, err := transformer.Transform(core.RawArticle{
		Text: "hello worlds", URL: "http://a.com/x",
	})
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash, c.Hash)
}

func TestTransformTrustsSuppliedValues(t *testing.T) {
	transformer := NewTransformer(nil)

	record, err := transformer.Transform(core.RawArticle{
		Text:           "hello world",
		Hash:           "precomputed-hash",
		Lang:           "en",
		ReadingMinutes: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, "precomputed-hash", record.Hash)
	assert.Equal(t, "en", record.Lang)
	assert.Equal(t, 7, record.ReadingMinutes)
}

func TestTransformRejectsMissingText(t *testing.T) {
	transformer := NewTransformer(nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := transformer.Transform(core.RawArticle{Text: text, URL: "http://a.com/x"})
		assert.ErrorIs(t, err, ErrUnusableRecord, "text %q", text)
	}
}
