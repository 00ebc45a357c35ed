package analyze

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

// ---------- Summary ----------

func TestSummary_NormalizesWhitespace(t *testing.T) {
	got := Summary("  a   grey \t cat\n\nunder the bench  ", 0)
	if got != "a grey cat under the bench" {
		t.Fatalf("Summary = %q", got)
	}
}

func TestSummary_TruncatesWithEllipsis(t *testing.T) {
	long := strings.Repeat("meow ", 100)
	got := Summary(long, 20)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated summary should end with ellipsis: %q", got)
	}
	if n := utf8.RuneCountInString(got); n > 20 {
		t.Fatalf("summary rune length = %d; want <= 20", n)
	}
}

func TestSummary_ShortTextUntouched(t *testing.T) {
	if got := Summary("tiny note", 160); got != "tiny note" {
		t.Fatalf("Summary = %q; want input unchanged", got)
	}
}

func TestSummary_DefaultCap(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := Summary(long, -1)
	if n := utf8.RuneCountInString(got); n != DefaultSummaryLen {
		t.Fatalf("default-capped summary rune length = %d; want %d", n, DefaultSummaryLen)
	}
}

func TestExcerpt_UsesCitationCap(t *testing.T) {
	long := strings.Repeat("y", 300)
	got := Excerpt(long)
	if n := utf8.RuneCountInString(got); n != DefaultExcerptLen {
		t.Fatalf("excerpt rune length = %d; want %d", n, DefaultExcerptLen)
	}
}

// ---------- Tags ----------

func TestTags_FrequencyThenFirstSeen(t *testing.T) {
	text := "bakery bakery tabby orange tabby bakery bench"
	got := Tags(text, 3)
	want := []string{"bakery", "tabby", "orange"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tags = %#v; want %#v", got, want)
	}
}

func TestTags_TieBreaksByFirstOccurrence(t *testing.T) {
	got := Tags("zebra apple zebra apple", 2)
	want := []string{"zebra", "apple"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tags = %#v; want %#v", got, want)
	}
}

func TestTags_DefaultCountAndEmpty(t *testing.T) {
	if got := Tags("", 0); len(got) != 0 {
		t.Fatalf("Tags on empty text = %#v; want empty", got)
	}
	got := Tags("one two three", 0) // default count 5 > available 3
	if len(got) != 3 {
		t.Fatalf("Tags with default k = %#v; want all 3 tokens", got)
	}
}

func TestTags_Deterministic(t *testing.T) {
	text := "grey cat near the bakery, grey cat again"
	a := Tags(text, 5)
	b := Tags(text, 5)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Tags must be deterministic: %#v vs %#v", a, b)
	}
}

// ---------- Sentiment ----------

func TestSentiment(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"such a nice happy cat, love it", "positive"},
		{"looks bad, seems stuck and frustrating", "negative"},
		{"a cat sat somewhere", "neutral"},
		{"good but broken", "neutral"}, // 1 vs 1 tie
		{"", "neutral"},
		{"GOOD GREAT", "positive"}, // case-insensitive
	}
	for _, tc := range cases {
		if got := Sentiment(tc.text); got != tc.want {
			t.Fatalf("Sentiment(%q) = %q; want %q", tc.text, got, tc.want)
		}
	}
}

func TestSentiment_DistinctTokensOnly(t *testing.T) {
	// "bad" repeated counts once; two distinct positives outweigh it.
	if got := Sentiment("bad bad bad good happy"); got != "positive" {
		t.Fatalf("Sentiment = %q; want positive", got)
	}
}
