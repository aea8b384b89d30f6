package mail

import (
	"context"
	"log/slog"

	"gatekeeper/internal/domain/service"
)

// logMailer writes messages to the log instead of sending them.
type logMailer struct {
	logger      *slog.Logger
	includeBody bool
}

// NewLogMailer returns a Mailer that logs each message. The body carries a raw token,
// so it is logged only when includeBody is set.
func NewLogMailer(logger *slog.Logger, includeBody bool) service.Mailer {
	return &logMailer{logger: logger, includeBody: includeBody}
}

func (m *logMailer) Send(ctx context.Context, recipient, subject, body string) error {
	attrs := []slog.Attr{
		slog.String("recipient", recipient),
		slog.String("subject", subject),
	}
	if m.includeBody {
		attrs = append(attrs, slog.String("body", body))
	}

	m.logger.LogAttrs(ctx, slog.LevelInfo, "[LogMailer] Email not sent, SMTP disabled", attrs...)

	return nil
}
