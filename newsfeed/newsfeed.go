// Package newsfeed retrieves the news items a digest is built from.
package newsfeed

import (
	"strings"

	"github.com/mmcdole/gofeed"
)

// NewsItem is one syndicated entry. PublishedAt is kept exactly as the feed
// wrote it and is never reparsed.
type NewsItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	PublishedAt string `json:"published_at"`
}

// FeedItemToNewsItem converts an RSS or Atom feed item to a NewsItem. gofeed
// normalizes both formats, so <link> (RSS) and <link rel="alternate"> (Atom)
// both arrive in item.Link.
func FeedItemToNewsItem(item *gofeed.Item) NewsItem {
	title := CleanTitle(item.Title)
	if title == "" {
		title = "(No title)"
	}

	// Published: raw <pubDate> (RSS) or <published> (Atom), falling back to
	// <updated> when a feed only carries that
	published := strings.TrimSpace(item.Published)
	if published == "" {
		published = strings.TrimSpace(item.Updated)
	}

	return NewsItem{
		Title:       title,
		Link:        strings.TrimSpace(item.Link),
		PublishedAt: published,
	}
}

// FeedToNewsItems converts at most limit items of a feed to NewsItems, in feed
// order. A negative limit converts everything.
func FeedToNewsItems(feed *gofeed.Feed, limit int) []NewsItem {
	entries := feed.Items
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]NewsItem, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		items = append(items, FeedItemToNewsItem(entry))
	}
	return items
}
