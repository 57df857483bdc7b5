package notifier

import (
	"context"
	"errors"
	"mime"
	"testing"

	"github.com/pevans/newsdigest/runerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"
)

type fakeMailer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeMailer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func emailConfig() DeliveryConfig {
	return DeliveryConfig{
		Mode: ModeEmail,
		SMTP: SMTPConfig{Host: "smtp.test", User: "bot@example.com", Password: "secret", To: "reader@example.com"},
	}
}

func TestDeliver_Email(t *testing.T) {
	mailer := &fakeMailer{}
	var gotConfig SMTPConfig
	n := New(&countingClient{}, nil)
	n.newMailer = func(cfg SMTPConfig) Mailer {
		gotConfig = cfg
		return mailer
	}

	err := n.Deliver(context.Background(), testPayload(), emailConfig())
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"bot@example.com"}, msg.GetHeader("From"), "From defaults to the SMTP user")
	assert.Equal(t, []string{"reader@example.com"}, msg.GetHeader("To"))
	require.Len(t, msg.GetHeader("Subject"), 1)
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.GetHeader("Subject")[0])
	require.NoError(t, err)
	assert.Equal(t, "房市早報 2026/10/19", subject, "the subject is the card alt text")
	assert.Equal(t, "smtp.test", gotConfig.Host)
}

func TestDeliver_EmailMissingPassword(t *testing.T) {
	mailer := &fakeMailer{}
	n := New(nil, nil)
	n.newMailer = func(SMTPConfig) Mailer { return mailer }

	cfg := emailConfig()
	cfg.SMTP.Password = ""

	err := n.Deliver(context.Background(), testPayload(), cfg)

	var configErr *runerr.ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Empty(t, mailer.sent)
}

func TestDeliver_EmailDialFailure(t *testing.T) {
	dialErr := errors.New("connection refused")
	n := New(nil, nil)
	n.newMailer = func(SMTPConfig) Mailer { return &fakeMailer{err: dialErr} }

	err := n.Deliver(context.Background(), testPayload(), emailConfig())

	var transportErr *runerr.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.ErrorIs(t, err, dialErr)
}
