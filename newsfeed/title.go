package newsfeed

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// A complete start, end or self-closing tag. A bare "<" followed by a
	// letter, as in "price<b and up", is text.
	tagPattern    = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)
	entityPattern = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);`)
)

// CleanTitle turns a feed title into display text. Titles with real inline
// markup are run through an HTML parser and reduced to their text;
// double-escaped entities are decoded. Any other "<" or "&" is kept as
// written. Whitespace is always collapsed.
func CleanTitle(raw string) string {
	text := raw
	switch {
	case tagPattern.MatchString(raw):
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err == nil {
			text = doc.Text()
		}
	case entityPattern.MatchString(raw):
		text = html.UnescapeString(raw)
	}

	// Normalize whitespace: replace multiple spaces/newlines with single space
	return strings.Join(strings.Fields(text), " ")
}
