package service

import "context"

// Mailer delivers a plain-text message. A nil error means the message was accepted for delivery.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
