package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/newsdigest/notifier"
	"gopkg.in/yaml.v3"
)

// FileConfig represents the structure of ~/.newsdigest/config.yaml. Pointer
// and empty values mean "not set" so defaults survive partial files.
type FileConfig struct {
	Feed struct {
		BaseURL  string `yaml:"base_url"`
		Query    string `yaml:"query"`
		Limit    *int   `yaml:"limit"`
		Language string `yaml:"language"`
		Region   string `yaml:"region"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"feed"`
	Digest struct {
		AdMarkers  []string `yaml:"ad_markers"`
		Annotation string   `yaml:"annotation"`
		Timezone   string   `yaml:"timezone"`
	} `yaml:"digest"`
	Delivery struct {
		Mode        string              `yaml:"mode"`
		Endpoint    string              `yaml:"endpoint"`
		Timeout     string              `yaml:"timeout"`
		Token       string              `yaml:"token"`
		RecipientID string              `yaml:"recipient_id"`
		SMTP        notifier.SMTPConfig `yaml:"smtp"`
	} `yaml:"delivery"`
	Metrics struct {
		PushgatewayURL string `yaml:"pushgateway_url"`
		Job            string `yaml:"job"`
	} `yaml:"metrics"`
	RunLog struct {
		DSN string `yaml:"dsn"`
	} `yaml:"runlog"`
}

// DefaultConfigPath returns $NEWSDIGEST_CONFIG, or ~/.newsdigest/config.yaml.
func DefaultConfigPath() (string, error) {
	if path := os.Getenv("NEWSDIGEST_CONFIG"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".newsdigest", "config.yaml"), nil
}

// LoadConfigFile loads configuration from path. Returns nil if the file
// doesn't exist (not an error). Returns error if the file exists but cannot
// be parsed.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

const defaultConfigFile = `# newsdigest configuration. Environment variables override every value here.

feed:
  # base_url: https://news.google.com/rss/search
  # Google News search query
  query: "房地產 OR 房市 OR 房價"
  limit: 5
  language: zh-TW
  region: TW
  timeout: 30s

digest:
  # Titles containing any of these are tagged as advertorials
  ad_markers:
    - 建案
    - 廣編
  timezone: Asia/Taipei

delivery:
  # form-push, json-push, json-broadcast, json-flex-broadcast or email
  mode: json-flex-broadcast
  timeout: 30s
  # Keep tokens in LINE_NOTIFY_TOKEN / LINE_CHANNEL_ACCESS_TOKEN instead
  # recipient_id: U0123456789abcdef

metrics:
  # pushgateway_url: http://localhost:9091
  job: newsdigest

runlog:
  # dsn: /var/lib/newsdigest/runs.db
`

// WriteDefaultConfigFile writes a commented default configuration to path.
// It returns false without touching the file when one already exists, unless
// force is set.
func WriteDefaultConfigFile(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}

	// 0700: owner-only access, the file may end up holding tokens
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigFile), 0o600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}
