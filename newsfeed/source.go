package newsfeed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/newsdigest/runerr"
)

// DefaultGoogleNewsURL is the Google News RSS search endpoint.
const DefaultGoogleNewsURL = "https://news.google.com/rss/search"

const userAgent = "newsdigest/1.0 (news digest notifier)"

// Source returns up to limit entries matching query, in the order the feed
// lists them. An empty result is not an error.
type Source interface {
	Fetch(ctx context.Context, query string, limit int) ([]NewsItem, error)
}

// SourceConfig holds the settings for a GoogleNewsSource.
type SourceConfig struct {
	// Search endpoint; DefaultGoogleNewsURL when empty
	BaseURL string
	// Interface language, e.g. "zh-TW"
	Language string
	// Edition country, e.g. "TW"
	Region string
	// Timeout for the whole request
	Timeout time.Duration
}

// GoogleNewsSource fetches keyword search results from Google News RSS.
type GoogleNewsSource struct {
	config     SourceConfig
	httpClient *http.Client
}

// NewGoogleNewsSource creates a source with the given configuration.
func NewGoogleNewsSource(config SourceConfig) *GoogleNewsSource {
	if config.BaseURL == "" {
		config.BaseURL = DefaultGoogleNewsURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &GoogleNewsSource{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// GoogleNewsURL builds the search feed URL for query. Spaces are encoded as
// %20 so boolean queries like "a OR b" survive intact.
func GoogleNewsURL(baseURL, query, language, region string) string {
	q := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")

	u := baseURL + "?q=" + q
	if language != "" {
		u += "&hl=" + url.QueryEscape(language)
	}
	if region != "" {
		u += "&gl=" + url.QueryEscape(region)
		if language != "" {
			u += "&ceid=" + region + ":" + editionLanguage(language)
		}
	}
	return u
}

// editionLanguage maps an interface language to the language part of the
// ceid parameter. Chinese editions use script subtags.
func editionLanguage(language string) string {
	switch language {
	case "zh-TW", "zh-HK":
		return "zh-Hant"
	case "zh-CN", "zh-SG":
		return "zh-Hans"
	}
	if i := strings.Index(language, "-"); i > 0 {
		return language[:i]
	}
	return language
}

// Fetch downloads and parses the search feed for query and returns its first
// limit entries. Network failures and non-200 responses come back as
// *runerr.TransportError.
func (s *GoogleNewsSource) Fetch(ctx context.Context, query string, limit int) ([]NewsItem, error) {
	feedURL := GoogleNewsURL(s.config.BaseURL, query, s.config.Language, s.config.Region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &runerr.TransportError{Op: "fetch feed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &runerr.TransportError{
			Op:  "fetch feed",
			Err: fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	// gofeed detects RSS and Atom on its own
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return FeedToNewsItems(feed, limit), nil
}
