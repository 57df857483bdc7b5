// Package digest turns a batch of news items into a render-ready digest and
// renders it as plain text or as a rich card.
//
// Everything here is a pure function of its inputs: building and rendering
// never perform I/O and never read the clock.
package digest

import (
	"strings"
	"time"

	"github.com/pevans/newsdigest/newsfeed"
)

// DateLayout formats the digest date label.
const DateLayout = "2006/01/02"

// AdAnnotation is appended to the display title of promotional items.
const AdAnnotation = " (建案/廣編)"

// Rules holds the substring markers that flag an item as promotional.
// Matching is case-sensitive containment against the title.
type Rules struct {
	AdMarkers []string
	// Suffix for promotional display titles; AdAnnotation when empty
	Annotation string
}

// DefaultRules returns the markers used for real-estate listing advertorials.
func DefaultRules() Rules {
	return Rules{
		AdMarkers:  []string{"建案", "廣編"},
		Annotation: AdAnnotation,
	}
}

// IsPromotional reports whether title contains any ad marker. Empty markers
// are ignored so they cannot match every title.
func (r Rules) IsPromotional(title string) bool {
	for _, marker := range r.AdMarkers {
		if marker != "" && strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

func (r Rules) annotation() string {
	if r.Annotation == "" {
		return AdAnnotation
	}
	return r.Annotation
}

// AnnotatedItem is a news item with its classification applied.
type AnnotatedItem struct {
	newsfeed.NewsItem
	IsPromotional bool
	DisplayTitle  string
}

// Digest is the summary of one run's news items.
type Digest struct {
	DateLabel string
	Items     []AnnotatedItem
}

// IsEmpty reports whether the digest has no items and should render the
// empty-state notice.
func (d Digest) IsEmpty() bool {
	return len(d.Items) == 0
}

// PromotionalCount returns how many items were tagged as promotional.
func (d Digest) PromotionalCount() int {
	n := 0
	for _, item := range d.Items {
		if item.IsPromotional {
			n++
		}
	}
	return n
}

// Build keeps the first limit entries, in input order, and tags each one
// against rules. The date label is taken from today as given; callers choose
// the time zone. A negative limit is treated as zero.
func Build(entries []newsfeed.NewsItem, limit int, rules Rules, today time.Time) Digest {
	if limit < 0 {
		limit = 0
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]AnnotatedItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, annotate(entry, rules))
	}

	return Digest{
		DateLabel: today.Format(DateLayout),
		Items:     items,
	}
}

// annotate applies rules to a single entry. The suffix is added once, even
// if several markers match.
func annotate(entry newsfeed.NewsItem, rules Rules) AnnotatedItem {
	item := AnnotatedItem{
		NewsItem:     entry,
		DisplayTitle: entry.Title,
	}
	if rules.IsPromotional(entry.Title) {
		item.IsPromotional = true
		item.DisplayTitle = entry.Title + rules.annotation()
	}
	return item
}
