package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/runerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturedRequest is what the stub endpoint saw.
type capturedRequest struct {
	Method      string
	Auth        string
	ContentType string
	RetryKey    string
	Body        []byte
}

// newStubEndpoint starts a server that records requests and answers with
// status and body.
func newStubEndpoint(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest, *int32) {
	t.Helper()

	captured := &capturedRequest{}
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		data, _ := io.ReadAll(r.Body)
		*captured = capturedRequest{
			Method:      r.Method,
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			RetryKey:    r.Header.Get("X-Line-Retry-Key"),
			Body:        data,
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, captured, &calls
}

// countingClient fails the test if used and counts calls.
type countingClient struct {
	calls int
}

func (c *countingClient) Do(req *http.Request) (*http.Response, error) {
	c.calls++
	return nil, errors.New("unexpected network call")
}

func testPayload() Payload {
	d := digest.Digest{
		DateLabel: "2026/10/19",
		Items: []digest.AnnotatedItem{
			{DisplayTitle: "A建案開賣 (建案/廣編)", IsPromotional: true},
			{DisplayTitle: "B市場觀察"},
		},
	}
	d.Items[0].Link = "https://x/1"
	d.Items[1].Link = "https://x/2"

	tmpl := digest.DefaultTemplate()
	return Payload{
		Text: digest.RenderText(d, tmpl),
		Card: digest.RenderCard(d, tmpl),
	}
}

func newTestNotifier() *Notifier {
	n := New(nil, nil)
	n.retryKey = func() string { return "retry-key-1" }
	return n
}

func TestDeliver_FormPush(t *testing.T) {
	server, captured, calls := newStubEndpoint(t, http.StatusOK, `{"status":200}`)
	payload := testPayload()

	err := newTestNotifier().Deliver(context.Background(), payload, DeliveryConfig{
		Mode:     ModeFormPush,
		Token:    "notify-token",
		Endpoint: server.URL,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "Bearer notify-token", captured.Auth)
	assert.Equal(t, "application/x-www-form-urlencoded", captured.ContentType)
	assert.Empty(t, captured.RetryKey, "LINE Notify does not take a retry key")

	form, err := url.ParseQuery(string(captured.Body))
	require.NoError(t, err)
	assert.Equal(t, payload.Text, form.Get("message"))
}

func TestDeliver_JSONPush(t *testing.T) {
	server, captured, _ := newStubEndpoint(t, http.StatusOK, `{}`)
	payload := testPayload()

	err := newTestNotifier().Deliver(context.Background(), payload, DeliveryConfig{
		Mode:        ModeJSONPush,
		Token:       "channel-token",
		RecipientID: "U123",
		Endpoint:    server.URL,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", captured.ContentType)
	assert.Equal(t, "retry-key-1", captured.RetryKey)

	var got struct {
		To       string `json:"to"`
		Messages []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(captured.Body, &got))
	assert.Equal(t, "U123", got.To)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "text", got.Messages[0].Type)
	assert.Equal(t, payload.Text, got.Messages[0].Text)
}

func TestDeliver_JSONBroadcast(t *testing.T) {
	server, captured, _ := newStubEndpoint(t, http.StatusOK, `{}`)
	payload := testPayload()

	err := newTestNotifier().Deliver(context.Background(), payload, DeliveryConfig{
		Mode:     ModeJSONBroadcast,
		Token:    "channel-token",
		Endpoint: server.URL,
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(captured.Body, &got))
	assert.NotContains(t, got, "to", "broadcast has no recipient")

	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "text", msg["type"])
	assert.Equal(t, payload.Text, msg["text"])
}

func TestDeliver_FlexBroadcast(t *testing.T) {
	server, captured, _ := newStubEndpoint(t, http.StatusOK, `{}`)

	err := newTestNotifier().Deliver(context.Background(), testPayload(), DeliveryConfig{
		Mode:     ModeFlexBroadcast,
		Token:    "channel-token",
		Endpoint: server.URL,
	})
	require.NoError(t, err)

	var got struct {
		Messages []struct {
			Type     string `json:"type"`
			AltText  string `json:"altText"`
			Contents struct {
				Type string `json:"type"`
				Body struct {
					Contents []struct {
						Type       string `json:"type"`
						Text       string `json:"text"`
						Decoration string `json:"decoration"`
						Action     *struct {
							Type string `json:"type"`
							URI  string `json:"uri"`
						} `json:"action"`
					} `json:"contents"`
				} `json:"body"`
				Footer struct {
					Contents []map[string]any `json:"contents"`
				} `json:"footer"`
			} `json:"contents"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(captured.Body, &got))
	require.Len(t, got.Messages, 1)

	msg := got.Messages[0]
	assert.Equal(t, "flex", msg.Type)
	assert.Equal(t, "房市早報 2026/10/19", msg.AltText)
	assert.Equal(t, "bubble", msg.Contents.Type)

	rows := msg.Contents.Body.Contents
	require.Len(t, rows, 2)
	assert.Equal(t, "1. A建案開賣 (建案/廣編)", rows[0].Text)
	require.NotNil(t, rows[0].Action)
	assert.Equal(t, "uri", rows[0].Action.Type)
	assert.Equal(t, "https://x/1", rows[0].Action.URI)
	assert.Empty(t, rows[0].Decoration, "promotional rows are not styled as links")
	assert.Equal(t, "underline", rows[1].Decoration)
	assert.Equal(t, "https://x/2", rows[1].Action.URI)

	require.Len(t, msg.Contents.Footer.Contents, 2)
	assert.Equal(t, "separator", msg.Contents.Footer.Contents[0]["type"])
}

func TestDeliver_FlexEmptyDigest(t *testing.T) {
	server, captured, _ := newStubEndpoint(t, http.StatusOK, `{}`)
	tmpl := digest.DefaultTemplate()
	d := digest.Digest{DateLabel: "2026/10/19", Items: []digest.AnnotatedItem{}}

	err := newTestNotifier().Deliver(context.Background(), Payload{
		Text: digest.RenderText(d, tmpl),
		Card: digest.RenderCard(d, tmpl),
	}, DeliveryConfig{Mode: ModeFlexBroadcast, Token: "t", Endpoint: server.URL})
	require.NoError(t, err)

	assert.Contains(t, string(captured.Body), tmpl.Empty)
}

func TestDeliver_FlexRequiresAltText(t *testing.T) {
	client := &countingClient{}

	err := New(client, nil).Deliver(context.Background(), Payload{Text: "x"}, DeliveryConfig{
		Mode:  ModeFlexBroadcast,
		Token: "t",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "alt text")
	assert.Equal(t, 0, client.calls)
}

// TestDeliver_MissingTokenMakesNoCall verifies configuration errors fail
// before any network traffic
func TestDeliver_MissingTokenMakesNoCall(t *testing.T) {
	client := &countingClient{}

	err := New(client, nil).Deliver(context.Background(), testPayload(), DeliveryConfig{
		Mode: ModeJSONBroadcast,
	})

	var configErr *runerr.ConfigurationError
	require.True(t, errors.As(err, &configErr), "expected ConfigurationError, got %v", err)
	assert.Equal(t, "json-broadcast", configErr.Mode)
	assert.Equal(t, []string{"token"}, configErr.Missing)
	assert.Equal(t, 0, client.calls)
}

func TestDeliver_Non200IsDeliveryError(t *testing.T) {
	server, _, calls := newStubEndpoint(t, http.StatusUnauthorized, "invalid token")

	err := newTestNotifier().Deliver(context.Background(), testPayload(), DeliveryConfig{
		Mode:     ModeJSONBroadcast,
		Token:    "bad-token",
		Endpoint: server.URL,
	})

	var deliveryErr *runerr.DeliveryError
	require.True(t, errors.As(err, &deliveryErr), "expected DeliveryError, got %v", err)
	assert.Equal(t, 401, deliveryErr.StatusCode)
	assert.Equal(t, "invalid token", deliveryErr.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "failures are not retried")
}

func TestDeliver_OtherSuccessCodesFail(t *testing.T) {
	server, _, _ := newStubEndpoint(t, http.StatusAccepted, "")

	err := newTestNotifier().Deliver(context.Background(), testPayload(), DeliveryConfig{
		Mode:     ModeFormPush,
		Token:    "t",
		Endpoint: server.URL,
	})

	var deliveryErr *runerr.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, http.StatusAccepted, deliveryErr.StatusCode)
}

func TestDeliver_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	err := newTestNotifier().Deliver(context.Background(), testPayload(), DeliveryConfig{
		Mode:     ModeFormPush,
		Token:    "t",
		Endpoint: endpoint,
	})

	var transportErr *runerr.TransportError
	require.True(t, errors.As(err, &transportErr), "expected TransportError, got %v", err)
	assert.Equal(t, "post message", transportErr.Op)
}

func TestDeliver_CancelledContext(t *testing.T) {
	server, _, _ := newStubEndpoint(t, http.StatusOK, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestNotifier().Deliver(ctx, testPayload(), DeliveryConfig{
		Mode:     ModeFormPush,
		Token:    "t",
		Endpoint: server.URL,
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFlexJSON(t *testing.T) {
	data, err := FlexJSON(testPayload().Card)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "flex", got["type"])
	assert.Equal(t, "房市早報 2026/10/19", got["altText"])
}
