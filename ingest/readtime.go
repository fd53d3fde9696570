package ingest

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
)

// wordsPerMinute is the assumed reading rate for derived reading times.
// Fixed so the derived value is reproducible across runs.
const wordsPerMinute = 200

// CountWords counts the word tokens in text using Unicode word
// segmentation, ignoring whitespace and punctuation-only tokens.
func CountWords(text string) int {
	count := 0
	tokens := words.FromString(text)
	for tokens.Next() {
		if isWordToken(tokens.Value()) {
			count++
		}
	}
	return count
}

// EstimateReadingMinutes derives a reading time from the text body,
// rounding up with a one-minute floor for non-blank text. Text without
// word tokens still takes a moment to look at.
func EstimateReadingMinutes(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	minutes := (CountWords(text) + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// isWordToken reports whether a segment contains at least one letter or
// digit; the segmenter also yields whitespace and punctuation runs.
func isWordToken(token string) bool {
	return strings.ContainsFunc(token, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	})
}
