// Package analyze implements the baseline text analyzer: summary
// truncation, frequency-based tag extraction, and word-list sentiment
// classification. It is deliberately naive — a deterministic stand-in with
// the same output contract a real language model would fill later.
package analyze

import (
	"regexp"
	"sort"
	"strings"

	"github.com/florianhoeppner/catatlas-backend/internal/match"
)

const (
	// DefaultSummaryLen caps the whitespace-normalized summary length.
	DefaultSummaryLen = 160
	// DefaultTagCount is the number of tags returned by Tags.
	DefaultTagCount = 5
	// DefaultExcerptLen caps citation excerpts.
	DefaultExcerptLen = 120
)

// sentimentRE tokenizes on letters and apostrophes only, with no length
// minimum — looser than keyword extraction so short emotional words
// ("sad", "ok") still register.
var sentimentRE = regexp.MustCompile(`[a-zA-Z']+`)

// Fixed sentiment word lists. Not real NLP; a countable, explainable proxy.
var (
	positiveWords = map[string]struct{}{
		"good": {}, "great": {}, "nice": {}, "love": {}, "fun": {},
		"happy": {}, "win": {}, "success": {}, "worked": {}, "improved": {},
	}
	negativeWords = map[string]struct{}{
		"bad": {}, "hard": {}, "confusing": {}, "stuck": {}, "fail": {},
		"error": {}, "issue": {}, "frustrating": {}, "broken": {},
	}
)

// Summary whitespace-normalizes text and truncates it to maxLen runes,
// appending an ellipsis when truncated. maxLen <= 0 uses the default.
func Summary(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSummaryLen
	}
	cleaned := strings.Join(strings.Fields(text), " ")
	runes := []rune(cleaned)
	if len(runes) <= maxLen {
		return cleaned
	}
	return strings.TrimRight(string(runes[:maxLen-1]), " ") + "…"
}

// Excerpt is Summary with the shorter citation cap.
func Excerpt(text string) string {
	return Summary(text, DefaultExcerptLen)
}

// Tags returns the k most frequent keyword tokens in text, stopword
// filtered, ordered by descending frequency. Ties break by first
// occurrence, which keeps output deterministic for identical input.
func Tags(text string, k int) []string {
	if k <= 0 {
		k = DefaultTagCount
	}
	tokens := match.Tokens(text)

	counts := make(map[string]int, len(tokens))
	firstSeen := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for i, t := range tokens {
		if _, seen := counts[t]; !seen {
			firstSeen[t] = i
			order = append(order, t)
		}
		counts[t]++
	}

	sort.SliceStable(order, func(a, b int) bool {
		if counts[order[a]] != counts[order[b]] {
			return counts[order[a]] > counts[order[b]]
		}
		return firstSeen[order[a]] < firstSeen[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	return order[:k]
}

// Sentiment classifies text as "positive", "negative", or "neutral" by
// counting distinct-token overlap against the fixed word lists.
func Sentiment(text string) string {
	tokens := sentimentRE.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}

	pos, neg := 0, 0
	for t := range seen {
		if _, ok := positiveWords[t]; ok {
			pos++
		}
		if _, ok := negativeWords[t]; ok {
			neg++
		}
	}

	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}
