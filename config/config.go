// Package config resolves the settings for a digest run.
//
// Values are loaded with precedence:
//  1. Environment variables (highest priority)
//  2. Configuration file (~/.newsdigest/config.yaml or $NEWSDIGEST_CONFIG)
//  3. Default values (lowest priority)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // scheduled runners often ship without zoneinfo

	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/notifier"
)

// Default values.
const (
	DefaultQuery    = "房地產 OR 房市 OR 房價"
	DefaultLimit    = 5
	DefaultLanguage = "zh-TW"
	DefaultRegion   = "TW"
	DefaultTimezone = "Asia/Taipei"
	DefaultJob      = "newsdigest"
	DefaultTimeout  = 30 * time.Second
)

// FeedConfig describes what to search for.
type FeedConfig struct {
	// BaseURL overrides the search feed endpoint. Empty uses Google News.
	BaseURL  string
	Query    string
	Limit    int
	Language string
	Region   string
	Timeout  time.Duration
}

// DigestConfig describes how items are classified and dated.
type DigestConfig struct {
	Rules    digest.Rules
	Timezone string
}

// MetricsConfig describes where run metrics are pushed. An empty URL
// disables the push.
type MetricsConfig struct {
	PushgatewayURL string
	Job            string
}

// RunLogConfig describes the optional run log. An empty DSN disables it.
type RunLogConfig struct {
	DSN string
}

// Config is the resolved, read-only configuration for one run.
type Config struct {
	Feed            FeedConfig
	Digest          DigestConfig
	Delivery        notifier.DeliveryConfig
	DeliveryTimeout time.Duration
	Metrics         MetricsConfig
	RunLog          RunLogConfig

	location *time.Location
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			Query:    DefaultQuery,
			Limit:    DefaultLimit,
			Language: DefaultLanguage,
			Region:   DefaultRegion,
			Timeout:  DefaultTimeout,
		},
		Digest: DigestConfig{
			Rules:    digest.DefaultRules(),
			Timezone: DefaultTimezone,
		},
		Delivery: notifier.DeliveryConfig{
			Mode: notifier.DefaultMode,
		},
		DeliveryTimeout: DefaultTimeout,
		Metrics: MetricsConfig{
			Job: DefaultJob,
		},
	}
}

// Load resolves configuration from defaults, the file at path and the
// environment, then validates it. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if file != nil {
		if err := cfg.applyFile(file); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile copies every value the file sets over the current values.
func (c *Config) applyFile(f *FileConfig) error {
	if f.Feed.BaseURL != "" {
		c.Feed.BaseURL = f.Feed.BaseURL
	}
	if f.Feed.Query != "" {
		c.Feed.Query = f.Feed.Query
	}
	if f.Feed.Limit != nil {
		c.Feed.Limit = *f.Feed.Limit
	}
	if f.Feed.Language != "" {
		c.Feed.Language = f.Feed.Language
	}
	if f.Feed.Region != "" {
		c.Feed.Region = f.Feed.Region
	}
	if f.Feed.Timeout != "" {
		d, err := time.ParseDuration(f.Feed.Timeout)
		if err != nil {
			return fmt.Errorf("invalid feed.timeout: %w", err)
		}
		c.Feed.Timeout = d
	}

	if f.Digest.AdMarkers != nil {
		c.Digest.Rules.AdMarkers = f.Digest.AdMarkers
	}
	if f.Digest.Annotation != "" {
		c.Digest.Rules.Annotation = f.Digest.Annotation
	}
	if f.Digest.Timezone != "" {
		c.Digest.Timezone = f.Digest.Timezone
	}

	if f.Delivery.Mode != "" {
		mode, err := notifier.ParseMode(f.Delivery.Mode)
		if err != nil {
			return fmt.Errorf("invalid delivery.mode: %w", err)
		}
		c.Delivery.Mode = mode
	}
	if f.Delivery.Endpoint != "" {
		c.Delivery.Endpoint = f.Delivery.Endpoint
	}
	if f.Delivery.Timeout != "" {
		d, err := time.ParseDuration(f.Delivery.Timeout)
		if err != nil {
			return fmt.Errorf("invalid delivery.timeout: %w", err)
		}
		c.DeliveryTimeout = d
	}
	if f.Delivery.Token != "" {
		c.Delivery.Token = f.Delivery.Token
	}
	if f.Delivery.RecipientID != "" {
		c.Delivery.RecipientID = f.Delivery.RecipientID
	}
	c.Delivery.SMTP = f.Delivery.SMTP

	if f.Metrics.PushgatewayURL != "" {
		c.Metrics.PushgatewayURL = f.Metrics.PushgatewayURL
	}
	if f.Metrics.Job != "" {
		c.Metrics.Job = f.Metrics.Job
	}
	if f.RunLog.DSN != "" {
		c.RunLog.DSN = f.RunLog.DSN
	}

	return nil
}

// applyEnv applies environment variables (highest priority).
func (c *Config) applyEnv() error {
	if val := os.Getenv("NEWSDIGEST_FEED_URL"); val != "" {
		c.Feed.BaseURL = val
	}
	if val := os.Getenv("NEWSDIGEST_QUERY"); val != "" {
		c.Feed.Query = val
	}
	if val := os.Getenv("NEWSDIGEST_LIMIT"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid NEWSDIGEST_LIMIT: %w", err)
		}
		c.Feed.Limit = n
	}
	if val := os.Getenv("NEWSDIGEST_AD_MARKERS"); val != "" {
		c.Digest.Rules.AdMarkers = splitAndTrim(val)
	}
	if val := os.Getenv("NEWSDIGEST_TIMEZONE"); val != "" {
		c.Digest.Timezone = val
	}
	if val := os.Getenv("NEWSDIGEST_MODE"); val != "" {
		mode, err := notifier.ParseMode(val)
		if err != nil {
			return fmt.Errorf("invalid NEWSDIGEST_MODE: %w", err)
		}
		c.Delivery.Mode = mode
	}
	if val := os.Getenv("NEWSDIGEST_ENDPOINT"); val != "" {
		c.Delivery.Endpoint = val
	}

	// Form push authenticates with a LINE Notify token, every other LINE
	// mode with a channel access token
	tokenVar := "LINE_CHANNEL_ACCESS_TOKEN"
	if c.Delivery.Mode == notifier.ModeFormPush {
		tokenVar = "LINE_NOTIFY_TOKEN"
	}
	if val := os.Getenv(tokenVar); val != "" {
		c.Delivery.Token = val
	}
	if val := os.Getenv("LINE_USER_ID"); val != "" {
		c.Delivery.RecipientID = val
	}

	if val := os.Getenv("NEWSDIGEST_SMTP_HOST"); val != "" {
		c.Delivery.SMTP.Host = val
	}
	if val := os.Getenv("NEWSDIGEST_SMTP_PORT"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid NEWSDIGEST_SMTP_PORT: %w", err)
		}
		c.Delivery.SMTP.Port = n
	}
	if val := os.Getenv("NEWSDIGEST_SMTP_USER"); val != "" {
		c.Delivery.SMTP.User = val
	}
	if val := os.Getenv("NEWSDIGEST_SMTP_PASSWORD"); val != "" {
		c.Delivery.SMTP.Password = val
	}
	if val := os.Getenv("NEWSDIGEST_SMTP_FROM"); val != "" {
		c.Delivery.SMTP.From = val
	}
	if val := os.Getenv("NEWSDIGEST_SMTP_TO"); val != "" {
		c.Delivery.SMTP.To = val
	}

	if val := os.Getenv("NEWSDIGEST_PUSHGATEWAY_URL"); val != "" {
		c.Metrics.PushgatewayURL = val
	}
	if val := os.Getenv("NEWSDIGEST_RUNLOG_DSN"); val != "" {
		c.RunLog.DSN = val
	}

	return nil
}

// Validate checks the settings that do not depend on secrets. Credentials
// are checked by the notifier at delivery time so a preview can run without
// them.
func (c *Config) Validate() error {
	if c.Feed.Limit < 0 {
		return fmt.Errorf("feed limit cannot be negative: %d", c.Feed.Limit)
	}
	if strings.TrimSpace(c.Feed.Query) == "" {
		return fmt.Errorf("feed query cannot be empty")
	}
	if _, err := notifier.ParseMode(string(c.Delivery.Mode)); err != nil {
		return err
	}

	loc, err := time.LoadLocation(c.Digest.Timezone)
	if err != nil {
		return fmt.Errorf("invalid time zone name '%s': %w", c.Digest.Timezone, err)
	}
	c.location = loc

	return nil
}

// Location returns the time zone the digest date is computed in. It follows
// Digest.Timezone even when Validate was not called; an unloadable name
// falls back to UTC, which Validate would have rejected.
func (c *Config) Location() *time.Location {
	if c.location != nil && c.location.String() == c.Digest.Timezone {
		return c.location
	}

	loc, err := time.LoadLocation(c.Digest.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
