package impl

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
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

// registrationService implements the RegistrationUsecase interface.
type registrationService struct {
	txManager   repository.TransactionManager
	userRepo    repository.UserRepository
	pendingRepo repository.PendingRegistrationRepository
	credentials *CredentialStore
	tokens      service.OpaqueTokenGenerator
	mailer      service.Mailer
	sessions    usecase.SessionUsecase
	clock       service.Clock
	linkTTL     time.Duration
	frontendURL string
	logger      *slog.Logger
}

// RegistrationServiceParams holds dependencies for RegistrationService, injected by Fx.
type RegistrationServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	UserRepo    repository.UserRepository
	PendingRepo repository.PendingRegistrationRepository
	Credentials *CredentialStore
	Tokens      service.OpaqueTokenGenerator
	Mailer      service.Mailer
	Sessions    usecase.SessionUsecase
	Clock       service.Clock
	Config      *config.Config
	Logger      *slog.Logger
}

// NewRegistrationService is the constructor for registrationService.
func NewRegistrationService(params RegistrationServiceParams) usecase.RegistrationUsecase {
	return &registrationService{
		txManager:   params.TxManager,
		userRepo:    params.UserRepo,
		pendingRepo: params.PendingRepo,
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

func (srv *registrationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Signup stores a pending registration and mails its verification link.
// The pending row is removed again when the mail cannot be delivered.
func (srv *registrationService) Signup(ctx context.Context, input *usecase.SignupInput) error {
	email := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	now := srv.clock.Now()

	srv.log(ctx).Info("Starting signup", slog.String("email", email))

	// 1. Expired pending rows no longer reserve an identity
	if err := srv.pendingRepo.DeleteExpiredByEmailOrUsername(ctx, email, username, now); err != nil {
		srv.log(ctx).Error("Failed to purge expired pending registrations", slog.Any("error", err))

		return errors.Wrap(err, "failed to purge expired pending registrations")
	}

	// 2. Identity must be free across users and live pending registrations
	if err := srv.credentials.EnsureAvailable(ctx, srv.userRepo, srv.pendingRepo, email, username, now); err != nil {
		srv.log(ctx).Warn("Signup identity unavailable", slog.String("email", email), slog.Any("error", err))

		return err
	}

	// 3. Strength gate
	if !srv.credentials.IsStrong(input.Password) {
		return domainerrors.ErrWeakPassword
	}

	passwordHash, err := srv.credentials.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

		return err
	}

	rawToken, tokenHash, err := srv.tokens.Generate()
	if err != nil {
		srv.log(ctx).Error("Failed to generate verification token", slog.Any("error", err))

		return errors.Wrap(err, "failed to generate verification token")
	}

	// 4. Unique indexes settle concurrent signups for the same identity
	pending := &entity.PendingRegistration{
		ID:                    uuid.New(),
		Email:                 email,
		Username:              username,
		PasswordHash:          passwordHash,
		VerificationTokenHash: tokenHash,
		ExpiresAt:             now.Add(srv.linkTTL),
		CreatedAt:             now,
	}
	if err := srv.pendingRepo.Create(ctx, pending); err != nil {
		if errors.Is(err, repository.ErrPendingRegistrationConflict) {
			return domainerrors.ErrIdentityTaken.WithReason(domainerrors.ReasonAlreadyPending)
		}
		srv.log(ctx).Error("Failed to create pending registration", slog.Any("error", err))

		return errors.Wrap(err, "failed to create pending registration")
	}

	// 5. Deliver the link, or take the reservation back
	subject, body := verificationEmail(srv.frontendURL, email, rawToken, int(srv.linkTTL/time.Minute))
	if err := srv.mailer.Send(ctx, email, subject, body); err != nil {
		srv.log(ctx).Error("Failed to send verification email", slog.String("email", email), slog.Any("error", err))
		if delErr := srv.pendingRepo.Delete(ctx, pending.ID); delErr != nil {
			srv.log(ctx).Error("Failed to remove undeliverable pending registration", slog.Any("error", delErr))
		}

		return errors.Wrap(domainerrors.ErrEmailDelivery, err.Error())
	}

	srv.log(ctx).Info("Signup pending verification", slog.String("pendingID", pending.ID.String()))

	return nil
}

// Verify promotes a pending registration into a user and signs the user in.
func (srv *registrationService) Verify(ctx context.Context, input *usecase.VerifyInput) (*entity.TokenPair, error) {
	email := normalizeEmail(input.Email)
	now := srv.clock.Now()
	expired := false

	var identity entity.Identity
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		users := repoFactory.UserRepo()
		pendingRepo := repoFactory.PendingRegistrationRepo()

		// 1. Already a user
		_, err := users.FindByEmail(ctx, email)
		if err == nil {
			return domainerrors.ErrAlreadyVerified
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to look up user")
		}

		// 2. Pending registration
		pending, err := pendingRepo.FindByEmail(ctx, email)
		if errors.Is(err, repository.ErrPendingRegistrationNotFound) {
			return domainerrors.ErrPendingRegistrationNotFound
		}
		if err != nil {
			return errors.Wrap(err, "failed to find pending registration")
		}

		// 3. Token must match; the pending row stays so the right link still works
		presented := srv.tokens.Hash(input.Token)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(pending.VerificationTokenHash)) != 1 {
			return domainerrors.Unauthorized(domainerrors.ReasonTokenMismatch)
		}

		// 4. Expired links are cleared and the deletion is committed
		if pending.IsExpired(now) {
			expired = true

			return pendingRepo.Delete(ctx, pending.ID)
		}

		// 5. Promote
		user := &entity.User{
			ID:           uuid.New(),
			Email:        pending.Email,
			Username:     pending.Username,
			PasswordHash: pending.PasswordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserAlreadyExists) {
				return domainerrors.ErrAlreadyVerified
			}

			return errors.Wrap(err, "failed to create user")
		}
		if err := pendingRepo.Delete(ctx, pending.ID); err != nil {
			return errors.Wrap(err, "failed to delete pending registration")
		}

		identity = user.Identity()

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Verification failed", slog.String("email", email), slog.Any("error", err))

		return nil, err
	}
	if expired {
		srv.log(ctx).Warn("Verification link expired", slog.String("email", email))

		return nil, domainerrors.Unauthorized(domainerrors.ReasonExpired)
	}

	srv.log(ctx).Info("Account verified", slog.String("userID", identity.UserID.String()))

	// 6. Sign in on the verifying device
	return srv.sessions.CreateTokenPair(ctx, identity, input.DeviceFingerprint)
}
