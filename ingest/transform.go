package ingest

import (
	"fmt"
	"strings"

	"github.com/poiesic/corpus/core"
)

// Transformer converts raw articles into canonical stored-record
// candidates, deriving the content-addressed hash, the canonical URL and
// the reading time. It holds only immutable policy and is safe for
// concurrent use.
type Transformer struct {
	normalizer *URLNormalizer
}

// NewTransformer builds a transformer with the policy's extra tracking
// parameters; a nil policy uses the built-in canonicalization set.
func NewTransformer(policy *Policy) *Transformer {
	var extra []string
	if policy != nil {
		extra = policy.TrackingParams
	}
	return &Transformer{normalizer: NewURLNormalizer(extra...)}
}

// Transform produces a stored-record candidate from a raw article.
// Returns ErrUnusableRecord when the raw record has no usable text body;
// such records are discarded before the quality gate.
//
// A supplied hash is trusted as-is. Otherwise the identity is derived
// from the canonical URL and the text, so re-ingesting identical content
// always reproduces the same identity.
func (t *Transformer) Transform(raw core.RawArticle) (*core.ArticleRecord, error) {
	if strings.TrimSpace(raw.Text) == "" {
		return nil, fmt.Errorf("%w: missing or empty text", ErrUnusableRecord)
	}

	canonicalURL := t.normalizer.Canonicalize(raw.URL)

	hash := raw.Hash
	if hash == "" {
		hash = core.HashFromContent(canonicalURL, raw.Text)
	}

	readingMinutes := raw.ReadingMinutes
	if readingMinutes <= 0 {
		readingMinutes = EstimateReadingMinutes(raw.Text)
	}

	return &core.ArticleRecord{
		Hash:           hash,
		Title:          raw.Title,
		Description:    raw.Description,
		Text:           raw.Text,
		CanonicalURL:   canonicalURL,
		Source:         raw.Source,
		Lang:           raw.Lang,
		ReadingMinutes: readingMinutes,
	}, nil
}
