package mail

import (
	"context"
	"strings"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"

	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"
)

// errHeaderInjection is returned when a header value contains a line break.
var errHeaderInjection = errors.New("mail header contains line break")

// smtpMailer sends plain-text mail through an SMTP relay, upgrading with STARTTLS when offered.
type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	sender   string
}

// NewSMTPMailer builds a Mailer from the smtp config section.
func NewSMTPMailer(cfg *config.SMTPConfig) service.Mailer {
	return &smtpMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		sender:   cfg.Sender,
	}
}

// Send delivers one message. The dial and the whole exchange are bounded by ctx.
func (m *smtpMailer) Send(ctx context.Context, recipient, subject, body string) error {
	msg, err := buildMessage(m.sender, recipient, subject, body)
	if err != nil {
		return err
	}

	client, err := m.newClient()
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "failed to send mail")
	}

	return nil
}

func (m *smtpMailer) newClient() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(m.port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.username),
			gomail.WithPassword(m.password),
		)
	}

	client, err := gomail.NewClient(m.host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create smtp client")
	}

	return client, nil
}

func buildMessage(sender, recipient, subject, body string) (*gomail.Msg, error) {
	for _, v := range []string{sender, recipient, subject} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, errHeaderInjection
		}
	}

	msg := gomail.NewMsg()
	if err := msg.From(sender); err != nil {
		return nil, errors.Wrap(err, "invalid sender address")
	}
	if err := msg.To(recipient); err != nil {
		return nil, errors.Wrap(err, "invalid recipient address")
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextPlain, body)

	return msg, nil
}
