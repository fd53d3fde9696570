package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/poiesic/corpus/core"
)

// Failure reasons emitted by the gate, in check order.
const (
	reasonTextTooShort = "text below minimum length"
	reasonTooFewWords  = "too few words"
	reasonLowInfo      = "low information density"
	reasonControlChars = "text contains control characters"
	reasonInvalidLang  = "invalid language tag"
)

var langTagPattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2})?$`)

// Gate evaluates a stored-record candidate against a fixed, ordered set of
// quality checks. All checks run on every record; failures are collected
// rather than short-circuited, so the reasons list is complete and
// reproducible. A Gate holds no per-record state and is safe for
// concurrent use.
type Gate struct {
	policy Policy
}

// NewGate builds a gate from the given policy, falling back to defaults.
func NewGate(policy *Policy) *Gate {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Gate{policy: *policy}
}

// Evaluate runs every check in order and returns the failure reasons.
// An empty result means the record is accepted.
func (g *Gate) Evaluate(record *core.ArticleRecord) []string {
	var reasons []string

	total, distinct := wordStats(record.Text)

	if len([]rune(record.Text)) < g.policy.MinTextLength {
		reasons = append(reasons, reasonTextTooShort)
	}
	if total < g.policy.MinWordCount {
		reasons = append(reasons, reasonTooFewWords)
	} else if total > 0 && float64(distinct)/float64(total) < g.policy.MinDistinctWordRatio {
		reasons = append(reasons, reasonLowInfo)
	}
	if hasControlChars(record.Text) {
		reasons = append(reasons, reasonControlChars)
	}
	if record.Lang != "" && !langTagPattern.MatchString(record.Lang) {
		reasons = append(reasons, reasonInvalidLang)
	}

	return reasons
}

// wordStats counts total and distinct word tokens in one pass.
// Distinctness is case-insensitive.
func wordStats(text string) (total, distinct int) {
	seen := make(map[string]struct{})
	tokens := words.FromString(text)
	for tokens.Next() {
		token := tokens.Value()
		if !isWordToken(token) {
			continue
		}
		total++
		lower := strings.ToLower(token)
		if _, ok := seen[lower]; !ok {
			seen[lower] = struct{}{}
			distinct++
		}
	}
	return total, distinct
}

// hasControlChars reports whether text contains control characters other
// than ordinary whitespace.
func hasControlChars(text string) bool {
	return strings.ContainsFunc(text, func(r rune) bool {
		switch r {
		case '\n', '\r', '\t':
			return false
		}
		return unicode.IsControl(r)
	})
}
