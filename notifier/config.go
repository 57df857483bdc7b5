package notifier

import (
	"fmt"
	"strings"

	"github.com/pevans/newsdigest/runerr"
)

// Mode selects the endpoint contract a digest is delivered through.
type Mode string

const (
	// ModeFormPush posts a form-encoded text message to LINE Notify. The
	// recipient is implied by the token.
	ModeFormPush Mode = "form-push"
	// ModeJSONPush pushes a text message to a single recipient through the
	// LINE Messaging API.
	ModeJSONPush Mode = "json-push"
	// ModeJSONBroadcast sends a text message to every follower of the bot.
	ModeJSONBroadcast Mode = "json-broadcast"
	// ModeFlexBroadcast sends the rich card to every follower of the bot.
	ModeFlexBroadcast Mode = "json-flex-broadcast"
	// ModeEmail mails the plain-text digest over SMTP.
	ModeEmail Mode = "email"
)

// DefaultMode is the delivery mode used when none is configured.
const DefaultMode = ModeFlexBroadcast

// Default endpoints per mode.
const (
	LineNotifyURL    = "https://notify-api.line.me/api/notify"
	LinePushURL      = "https://api.line.me/v2/bot/message/push"
	LineBroadcastURL = "https://api.line.me/v2/bot/message/broadcast"
)

// Modes lists every supported mode, in the order they were introduced.
var Modes = []Mode{ModeFormPush, ModeJSONPush, ModeJSONBroadcast, ModeFlexBroadcast, ModeEmail}

// ParseMode converts a configured string into a Mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range Modes {
		if m == mode {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown delivery mode: %q", s)
}

// SMTPConfig holds the mail settings used by ModeEmail.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// DeliveryConfig is everything the notifier needs to deliver one digest.
type DeliveryConfig struct {
	Mode Mode
	// Bearer token: a LINE Notify token for ModeFormPush, a channel access
	// token for the JSON modes
	Token string
	// Recipient user, group or room ID; ModeJSONPush only
	RecipientID string
	// Overrides the mode's default endpoint when set
	Endpoint string
	SMTP     SMTPConfig
}

// Validate checks that the credentials the mode requires are present. Missing
// credentials yield a *runerr.ConfigurationError.
func (c DeliveryConfig) Validate() error {
	var missing []string
	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	switch c.Mode {
	case ModeFormPush, ModeJSONBroadcast, ModeFlexBroadcast:
		require(c.Token, "token")
	case ModeJSONPush:
		require(c.Token, "token")
		require(c.RecipientID, "recipient id")
	case ModeEmail:
		require(c.SMTP.Host, "smtp host")
		require(c.SMTP.User, "smtp user")
		require(c.SMTP.Password, "smtp password")
		require(c.SMTP.To, "recipient address")
	default:
		return fmt.Errorf("unknown delivery mode: %q", c.Mode)
	}

	if len(missing) > 0 {
		return &runerr.ConfigurationError{Mode: string(c.Mode), Missing: missing}
	}
	return nil
}

// EndpointURL returns the configured endpoint, or the mode's default.
func (c DeliveryConfig) EndpointURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}

	switch c.Mode {
	case ModeFormPush:
		return LineNotifyURL
	case ModeJSONPush:
		return LinePushURL
	case ModeJSONBroadcast, ModeFlexBroadcast:
		return LineBroadcastURL
	}
	return ""
}
