package analysis

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText drops markup (HTML tags, markdown bold) and folds whitespace.
func PlainText(content string) string {
	text := content
	if strings.ContainsAny(content, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err == nil {
			text = doc.Text()
		}
	}
	text = strings.ReplaceAll(text, "**", "")
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns the first sentence longer than minSentence characters,
// or the first 150 characters followed by an ellipsis.
func Excerpt(content string, minSentence int) string {
	plain := PlainText(content)
	for _, sentence := range strings.Split(plain, ". ") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= minSentence {
			continue
		}
		if strings.HasSuffix(sentence, ".") {
			return sentence
		}
		return sentence + "."
	}
	return Truncate(plain, 150) + "..."
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
