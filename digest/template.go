package digest

import "strings"

// Template holds the fixed strings both renderers wrap around the items.
type Template struct {
	// Title line prefix, followed by the date label
	Title string
	// Card header text
	CardTitle string
	// Horizontal rule between header, items and footer
	Rule string
	// Shown instead of the list when there are no items
	Empty string
	// Closing remark after the final rule
	Closing string
	// Preview text prefix for clients that cannot render cards
	AltText string
}

// DefaultTemplate returns the housing-market morning report template.
func DefaultTemplate() Template {
	return Template{
		Title:     "🏠 【房市早報】",
		CardTitle: "🏠 房市早報",
		Rule:      strings.Repeat("-", 20),
		Empty:     "今日沒有相關新聞。",
		Closing:   "祝你有美好的一天！",
		AltText:   "房市早報",
	}
}

// AltTextFor returns the preview text for a digest dated dateLabel.
func (t Template) AltTextFor(dateLabel string) string {
	return t.AltText + " " + dateLabel
}
