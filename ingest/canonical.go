package ingest

import (
	"net/url"
	"strings"
)

// Tracking parameters stripped during URL canonicalization. Parameters
// beginning with "utm_" are always stripped.
var defaultTrackingParams = []string{
	"utm", "fbclid", "gclid", "mc_cid", "mc_eid", "ref",
}

// URLNormalizer produces the canonical form of source URLs. The policy is
// fixed at construction so canonicalization stays a pure function: the
// same input URL always yields the same canonical form, which the identity
// hash depends on.
type URLNormalizer struct {
	tracking map[string]struct{}
}

// NewURLNormalizer builds a normalizer stripping the default tracking
// parameters plus any extras.
func NewURLNormalizer(extra ...string) *URLNormalizer {
	tracking := make(map[string]struct{}, len(defaultTrackingParams)+len(extra))
	for _, name := range defaultTrackingParams {
		tracking[name] = struct{}{}
	}
	for _, name := range extra {
		tracking[strings.ToLower(name)] = struct{}{}
	}
	return &URLNormalizer{tracking: tracking}
}

// Canonicalize normalizes a source URL:
//   - scheme and host are lowercased, default ports dropped
//   - the fragment is dropped
//   - tracking query parameters are dropped, the rest sorted by key
//   - a trailing slash is trimmed from non-root paths
//
// URLs that do not parse pass through trimmed, so unusual sources still
// get a stable (if unnormalized) canonical form.
func (n *URLNormalizer) Canonicalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return trimmed
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	if u.RawQuery != "" {
		query := u.Query()
		for name := range query {
			if n.isTracking(name) {
				query.Del(name)
			}
		}
		// Encode sorts keys, making the parameter order deterministic
		u.RawQuery = query.Encode()
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}

func (n *URLNormalizer) isTracking(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	_, ok := n.tracking[lower]
	return ok
}
