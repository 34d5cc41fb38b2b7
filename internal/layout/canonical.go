package layout

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalizer produces the canonical byte form of extractable page content
// before hashing. Canonicalization must be deterministic: cosmetically
// identical content yields identical bytes across runs.
type Normalizer interface {
	Canonicalize(content string) []byte
}

// NormalizerFunc adapts a plain function to the Normalizer interface.
type NormalizerFunc func(content string) []byte

// Canonicalize calls f(content).
func (f NormalizerFunc) Canonicalize(content string) []byte {
	return f(content)
}

// Identity returns content unchanged. Use it when the caller supplies
// already-canonicalized content.
func Identity() Normalizer {
	return NormalizerFunc(func(content string) []byte {
		return []byte(content)
	})
}

// trackingParams matches query parameters that vary between fetches without
// changing the content itself (campaign tags, click identifiers, session
// ids). They are stripped before hashing so a re-tagged link does not read
// as content drift.
var trackingParams = regexp.MustCompile(`(?i)^(utm_[a-z0-9_]+|gclid|fbclid|msclkid|mc_[a-z]+|sessionid|phpsessid|jsessionid)$`)

// timestampPattern matches ISO-style date-time strings embedded in prose
// ("Page last reviewed 2026-01-15 08:30:00"). Government pages stamp these
// on every render, so they are volatile and excluded from the hash.
var timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2})?(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`)

// whitespaceRun collapses any run of Unicode whitespace to one space.
var whitespaceRun = regexp.MustCompile(`\s+`)

// Default returns the default content normalizer. It applies, in order:
//
//  1. Unicode NFKC normalization, so visually equivalent encodings of the
//     same text hash identically.
//  2. Removal of embedded timestamps.
//  3. Whitespace collapsing and trimming.
//
// URL tracking parameters are handled separately by CanonicalizeURL,
// which the snapshotter applies to each PDF link.
func Default() Normalizer {
	return NormalizerFunc(func(content string) []byte {
		s := norm.NFKC.String(content)
		s = timestampPattern.ReplaceAllString(s, "")
		s = whitespaceRun.ReplaceAllString(s, " ")
		return []byte(strings.TrimSpace(s))
	})
}

// CanonicalizeURL strips volatile tracking parameters from a URL and
// normalizes the scheme and host to lower case. Invalid URLs are returned
// unchanged; the fingerprint still captures them consistently.
func CanonicalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		values := u.Query()
		for key := range values {
			if trackingParams.MatchString(key) {
				values.Del(key)
			}
		}
		u.RawQuery = values.Encode()
	}
	return u.String()
}
