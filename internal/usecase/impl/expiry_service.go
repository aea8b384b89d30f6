package impl

import (
	"context"
	"log/slog"

	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

type expiryService struct {
	pendingRepo repository.PendingRegistrationRepository
	sessionRepo repository.RefreshSessionRepository
	resetRepo   repository.PasswordResetRepository
	clock       service.Clock
	logger      *slog.Logger
}

// ExpiryServiceParams holds dependencies for ExpiryService, injected by Fx.
type ExpiryServiceParams struct {
	fx.In

	PendingRepo repository.PendingRegistrationRepository
	SessionRepo repository.RefreshSessionRepository
	ResetRepo   repository.PasswordResetRepository
	Clock       service.Clock
	Logger      *slog.Logger
}

// NewExpiryService is the constructor for expiryService.
func NewExpiryService(params ExpiryServiceParams) usecase.ExpiryUsecase {
	return &expiryService{
		pendingRepo: params.PendingRepo,
		sessionRepo: params.SessionRepo,
		resetRepo:   params.ResetRepo,
		clock:       params.Clock,
		logger:      params.Logger,
	}
}

// SweepExpired deletes expired rows from every store concurrently.
func (srv *expiryService) SweepExpired(ctx context.Context) (*usecase.SweepResult, error) {
	now := srv.clock.Now()
	result := &usecase.SweepResult{}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		n, err := srv.pendingRepo.DeleteExpired(gctx, now)
		result.PendingRegistrations = n

		return errors.Wrap(err, "sweep pending registrations")
	})
	group.Go(func() error {
		n, err := srv.sessionRepo.DeleteExpired(gctx, now)
		result.RefreshSessions = n

		return errors.Wrap(err, "sweep refresh sessions")
	})
	group.Go(func() error {
		n, err := srv.resetRepo.DeleteExpired(gctx, now)
		result.PasswordResetTokens = n

		return errors.Wrap(err, "sweep password reset tokens")
	})

	if err := group.Wait(); err != nil {
		srv.logger.Error("Expiry sweep failed", slog.Any("error", err))

		return result, err
	}

	if result.PendingRegistrations+result.RefreshSessions+result.PasswordResetTokens > 0 {
		srv.logger.Info("Expiry sweep removed records",
			slog.Int64("pendingRegistrations", result.PendingRegistrations),
			slog.Int64("refreshSessions", result.RefreshSessions),
			slog.Int64("passwordResetTokens", result.PasswordResetTokens),
		)
	}

	return result, nil
}
