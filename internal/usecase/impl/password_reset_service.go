package impl

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/config"
	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// passwordResetService implements the PasswordResetUsecase interface.
type passwordResetService struct {
	txManager   repository.TransactionManager
	userRepo    repository.UserRepository
	resetRepo   repository.PasswordResetRepository
	credentials *CredentialStore
	tokens      service.OpaqueTokenGenerator
	mailer      service.Mailer
	sessions    usecase.SessionUsecase
	clock       service.Clock
	linkTTL     time.Duration
	frontendURL string
	logger      *slog.Logger
}

// PasswordResetServiceParams holds dependencies for PasswordResetService, injected by Fx.
type PasswordResetServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	UserRepo    repository.UserRepository
	ResetRepo   repository.PasswordResetRepository
	Credentials *CredentialStore
	Tokens      service.OpaqueTokenGenerator
	Mailer      service.Mailer
	Sessions    usecase.SessionUsecase
	Clock       service.Clock
	Config      *config.Config
	Logger      *slog.Logger
}

// NewPasswordResetService is the constructor for passwordResetService.
func NewPasswordResetService(params PasswordResetServiceParams) usecase.PasswordResetUsecase {
	return &passwordResetService{
		txManager:   params.TxManager,
		userRepo:    params.UserRepo,
		resetRepo:   params.ResetRepo,
		credentials: params.Credentials,
		tokens:      params.Tokens,
		mailer:      params.Mailer,
		sessions:    params.Sessions,
		clock:       params.Clock,
		linkTTL:     params.Config.Auth.LinkTTL(),
		frontendURL: params.Config.Auth.FrontendURL,
		logger:      params.Logger,
	}
}

func (srv *passwordResetService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Initiate issues a reset token for a verified user and mails the link.
// A user with a live token must wait for it to be used or to expire.
func (srv *passwordResetService) Initiate(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	now := srv.clock.Now()

	// 1. Only verified users can reset
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		srv.log(ctx).Warn("Password reset for unknown email", slog.String("email", email))

		return domainerrors.ErrResetUnavailable.WithReason(domainerrors.ReasonNotFound)
	}
	if err != nil {
		return errors.Wrap(err, "failed to look up user")
	}

	rawToken, tokenHash, err := srv.tokens.Generate()
	if err != nil {
		srv.log(ctx).Error("Failed to generate reset token", slog.Any("error", err))

		return errors.Wrap(err, "failed to generate reset token")
	}

	// 2. At most one live token per user, checked under the user row lock
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.UserRepo().AcquireSessionMutex(ctx, user.ID); err != nil {
			return errors.Wrap(err, "failed to lock user")
		}

		resets := repoFactory.PasswordResetRepo()

		live, err := resets.ExistsLiveForUser(ctx, user.ID, now)
		if err != nil {
			return errors.Wrap(err, "failed to check reset tokens")
		}
		if live {
			return domainerrors.ErrResetUnavailable.WithReason(domainerrors.ReasonAlreadyPending)
		}

		err = resets.Replace(ctx, &entity.PasswordResetToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			TokenHash: tokenHash,
			ExpiresAt: now.Add(srv.linkTTL),
			CreatedAt: now,
		})
		if errors.Is(err, repository.ErrPasswordResetTokenExists) {
			return domainerrors.ErrResetUnavailable.WithReason(domainerrors.ReasonAlreadyPending)
		}

		return err
	})
	if err != nil {
		srv.log(ctx).Warn("Password reset not started", slog.String("userID", user.ID.String()), slog.Any("error", err))

		return err
	}

	// 3. Mail the link, or withdraw the token so a retry is possible
	subject, body := resetEmail(srv.frontendURL, user.Email, rawToken, int(srv.linkTTL/time.Minute))
	if err := srv.mailer.Send(ctx, user.Email, subject, body); err != nil {
		srv.log(ctx).Error("Failed to send reset email", slog.String("userID", user.ID.String()), slog.Any("error", err))
		if delErr := srv.resetRepo.DeleteByUserID(ctx, user.ID); delErr != nil {
			srv.log(ctx).Error("Failed to withdraw reset token", slog.Any("error", delErr))
		}

		return errors.Wrap(domainerrors.ErrEmailDelivery, err.Error())
	}

	srv.log(ctx).Info("Password reset initiated", slog.String("userID", user.ID.String()))

	return nil
}

// Consume redeems a reset token exactly once and returns its user.
func (srv *passwordResetService) Consume(ctx context.Context, rawToken string) (uuid.UUID, error) {
	if rawToken == "" {
		return uuid.Nil, domainerrors.Unauthorized(domainerrors.ReasonInvalidOrExpired)
	}

	token, err := srv.resetRepo.Consume(ctx, srv.tokens.Hash(rawToken), srv.clock.Now())
	if errors.Is(err, repository.ErrPasswordResetTokenNotFound) {
		srv.log(ctx).Warn("Reset token invalid or expired")

		return uuid.Nil, domainerrors.Unauthorized(domainerrors.ReasonInvalidOrExpired)
	}
	if err != nil {
		srv.log(ctx).Error("Failed to consume reset token", slog.Any("error", err))

		return uuid.Nil, errors.Wrap(err, "failed to consume reset token")
	}

	return token.UserID, nil
}

// Complete sets the new password, signs the user out everywhere and issues a fresh pair.
func (srv *passwordResetService) Complete(
	ctx context.Context,
	userID uuid.UUID,
	newPassword, deviceFingerprint string,
) (*entity.TokenPair, error) {
	if !srv.credentials.IsStrong(newPassword) {
		return nil, domainerrors.ErrWeakPassword
	}

	passwordHash, err := srv.credentials.Hash(newPassword)
	if err != nil {
		srv.log(ctx).Error("Failed to hash new password", slog.Any("error", err))

		return nil, err
	}

	if err := srv.userRepo.UpdatePasswordHash(ctx, userID, passwordHash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}
		srv.log(ctx).Error("Failed to update password", slog.String("userID", userID.String()), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to update password")
	}

	if err := srv.sessions.RevokeAll(ctx, userID); err != nil {
		return nil, err
	}

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload user")
	}

	srv.log(ctx).Info("Password reset completed", slog.String("userID", userID.String()))

	return srv.sessions.CreateTokenPair(ctx, user.Identity(), deviceFingerprint)
}

// ResetPassword rejects a weak password before the token is burned.
func (srv *passwordResetService) ResetPassword(ctx context.Context, input *usecase.ResetPasswordInput) (*entity.TokenPair, error) {
	if !srv.credentials.IsStrong(input.NewPassword) {
		return nil, domainerrors.ErrWeakPassword
	}

	userID, err := srv.Consume(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	return srv.Complete(ctx, userID, input.NewPassword, input.DeviceFingerprint)
}
