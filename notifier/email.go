package notifier

import (
	"time"

	"github.com/pevans/newsdigest/runerr"
	"github.com/sirupsen/logrus"
	gomail "gopkg.in/mail.v2"
)

const defaultSubject = "News digest"

// Mailer sends prepared messages. *gomail.Dialer satisfies it.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

func newSMTPMailer(cfg SMTPConfig) Mailer {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	dialer := gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Password)
	dialer.Timeout = 10 * time.Second
	return dialer
}

// deliverEmail mails the plain-text digest to a single recipient. The card's
// alt text doubles as the subject line.
func (n *Notifier) deliverEmail(payload Payload, cfg DeliveryConfig, log logrus.FieldLogger) error {
	from := cfg.SMTP.From
	if from == "" {
		from = cfg.SMTP.User
	}

	subject := payload.Card.AltText
	if subject == "" {
		subject = defaultSubject
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", cfg.SMTP.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", payload.Text)

	if err := n.newMailer(cfg.SMTP).DialAndSend(m); err != nil {
		log.WithField("to", cfg.SMTP.To).Errorf("Failed to send digest email: %v", err)
		return &runerr.TransportError{Op: "send email", Err: err}
	}

	log.WithField("to", cfg.SMTP.To).Info("Digest emailed")
	return nil
}
