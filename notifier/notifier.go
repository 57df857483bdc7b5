// Package notifier delivers a rendered digest to a messaging endpoint.
//
// Each delivery is a single attempt. Missing credentials fail before any
// network call, a non-200 response becomes a *runerr.DeliveryError carrying
// the response verbatim, and network failures become *runerr.TransportError.
// Nothing is retried.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/runerr"
	"github.com/sirupsen/logrus"
)

// Payload is a digest rendered in both forms. The delivery mode decides which
// one goes on the wire.
type Payload struct {
	Text string
	Card digest.Card
}

// HTTPClient is the part of *http.Client the notifier uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier sends payloads according to a DeliveryConfig.
type Notifier struct {
	httpClient HTTPClient
	log        logrus.FieldLogger
	newMailer  func(SMTPConfig) Mailer
	retryKey   func() string
}

// New creates a notifier. A nil client gets an *http.Client with a 30 second
// timeout; a nil logger discards output.
func New(client HTTPClient, log logrus.FieldLogger) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &Notifier{
		httpClient: client,
		log:        log,
		newMailer:  newSMTPMailer,
		retryKey:   func() string { return uuid.NewString() },
	}
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string `json:"to"`
	Messages []any  `json:"messages"`
}

type broadcastRequest struct {
	Messages []any `json:"messages"`
}

// Deliver sends payload using cfg. It returns nil only when the endpoint
// answered 200.
func (n *Notifier) Deliver(ctx context.Context, payload Payload, cfg DeliveryConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := n.log.WithField("mode", string(cfg.Mode))

	if cfg.Mode == ModeEmail {
		return n.deliverEmail(payload, cfg, log)
	}

	req, err := n.newRequest(ctx, payload, cfg)
	if err != nil {
		return err
	}

	log.WithField("endpoint", req.URL.String()).Debug("Posting digest")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &runerr.TransportError{Op: "post message", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &runerr.TransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Error("Endpoint rejected digest")
		return &runerr.DeliveryError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	log.Info("Digest delivered")
	return nil
}

// newRequest serializes payload into the request the mode's endpoint expects.
func (n *Notifier) newRequest(ctx context.Context, payload Payload, cfg DeliveryConfig) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)

	switch cfg.Mode {
	case ModeFormPush:
		form := url.Values{"message": {payload.Text}}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case ModeJSONPush:
		data, err := json.Marshal(pushRequest{
			To:       cfg.RecipientID,
			Messages: []any{textMessage{Type: "text", Text: payload.Text}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal push request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case ModeJSONBroadcast:
		data, err := json.Marshal(broadcastRequest{
			Messages: []any{textMessage{Type: "text", Text: payload.Text}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal broadcast request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case ModeFlexBroadcast:
		if strings.TrimSpace(payload.Card.AltText) == "" {
			return nil, errors.New("flex message requires alt text")
		}
		data, err := json.Marshal(broadcastRequest{
			Messages: []any{flexFromCard(payload.Card)},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flex request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	default:
		return nil, fmt.Errorf("unknown delivery mode: %q", cfg.Mode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.EndpointURL(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.Token)
	req.Header.Set("Content-Type", contentType)

	// The Messaging API treats requests sharing a retry key as one
	if cfg.Mode != ModeFormPush {
		req.Header.Set("X-Line-Retry-Key", n.retryKey())
	}

	return req, nil
}
