// Package match provides the deterministic sighting-matching core: keyword
// tokenization, Jaccard set similarity, great-circle distance, and the
// combined match scorer used by the candidate search endpoints.
//
// The package is intentionally small and dependency-free, but engineered the
// same way as the rest of the application:
//
//   - No logging in the library (callers decide how/what to log)
//   - Deterministic scoring (stable results for identical inputs)
//   - Explainable heuristics; every score comes with human-readable reasons
//
// This is not statistical matching. Scores are auditable combinations of
// keyword overlap and geographic proximity, nothing more.
package match

import (
	"regexp"
	"strings"
)

// keywordRE matches word-like tokens: an alphabetic start followed by at
// least two alphanumeric/underscore/hyphen characters (total length >= 3).
// Non-ASCII letters are deliberately not matched; free-text sightings are
// overwhelmingly English and the simpler pattern keeps tags predictable.
var keywordRE = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9_-]{2,}`)

// Stopwords is the fixed set of common English function words removed during
// keyword extraction. Kept small so tags stay meaningful.
var Stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"then": {}, "so": {}, "to": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"with": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "it": {}, "this": {}, "that": {}, "i": {}, "you": {},
	"we": {}, "they": {}, "my": {}, "at": {}, "as": {}, "by": {},
	"from": {}, "into": {}, "about": {}, "over": {}, "after": {},
	"before": {}, "again": {},
}

// Normalize lowercases s and collapses all whitespace runs to single spaces,
// trimming the ends. Empty input yields "".
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Tokens extracts stopword-filtered keyword tokens from free text in
// document order, duplicates preserved. Used where frequency matters
// (e.g. tag extraction); Keywords is the set-valued variant.
func Tokens(text string) []string {
	words := keywordRE.FindAllString(Normalize(text), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := Stopwords[w]; skip {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Keywords extracts the stopword-filtered keyword set from free text.
// Duplicates collapse; order is irrelevant. Empty input yields an empty set.
func Keywords(text string) map[string]struct{} {
	words := keywordRE.FindAllString(Normalize(text), -1)
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := Stopwords[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}
