package analysis

import (
	"strings"
	"testing"
)

func TestPlainTextStripsMarkup(t *testing.T) {
	t.Parallel()

	got := PlainText("<p>Housing <strong>win</strong> in\n<em>Leeds</em></p> **today**")
	if got != "Housing win in Leeds today" {
		t.Fatalf("unexpected plain text: %q", got)
	}
}

func TestExcerptPicksFirstLongSentence(t *testing.T) {
	t.Parallel()

	content := "**Community Member Experience**\n\nShort. A community member shared a long and hopeful update about housing. More follows."
	got := Excerpt(content, 40)
	if got != "A community member shared a long and hopeful update about housing." {
		t.Fatalf("unexpected excerpt: %q", got)
	}
}

func TestExcerptFallsBackToPrefix(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("abc. ", 60)
	got := Excerpt(content, 30)
	if !strings.HasSuffix(got, "...") || len(got) != 153 {
		t.Fatalf("unexpected fallback excerpt (%d): %q", len(got), got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	if got := Truncate("héllo", 2); got != "h" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
