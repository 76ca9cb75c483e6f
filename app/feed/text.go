package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSummaryChars bounds the derived article description.
const maxSummaryChars = 220

// noDescription is returned instead of an empty summary.
const noDescription = "No description available"

// cleanText strips all markup from a raw description or content field and
// collapses the rest to trimmed plain text. Empty input yields an empty
// string, malformed HTML is used as-is.
func cleanText(raw string) string {
	if raw == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// summarize derives a bounded-length summary from plain text: the first
// sentence, cut at maxSummaryChars with an ellipsis when the sentence itself
// was longer than the bound.
func summarize(text string) string {
	if text == "" {
		return noDescription
	}

	sentence, _, _ := strings.Cut(text, ". ")

	runes := []rune(sentence)
	if len(runes) > maxSummaryChars {
		return string(runes[:maxSummaryChars]) + "..."
	}

	return sentence
}
