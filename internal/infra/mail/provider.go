// Package mail delivers verification and password reset messages.
package mail

import (
	"log/slog"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"

	"go.uber.org/fx"
)

// MailerParams holds dependencies for Mailer, injected by Fx
type MailerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewMailer creates a Mailer based on configuration
func NewMailer(params MailerParams) service.Mailer {
	cfg := params.Config.SMTP
	logger := params.Logger

	// Without a relay, messages are only written to the log
	if cfg == nil || !cfg.Enabled {
		logger.Info("SMTP not enabled, using log mailer")

		return NewLogMailer(logger, !params.Config.IsProduction())
	}

	logger.Info("Using SMTP mailer",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("sender", cfg.Sender),
	)

	return NewSMTPMailer(cfg)
}

// Module provides the mail FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewMailer),
)
