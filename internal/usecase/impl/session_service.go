package impl

import (
	"context"
	"crypto/subtle"
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

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	sessionRepo repository.RefreshSessionRepository
	signer      service.TokenSigner
	tokens      service.OpaqueTokenGenerator
	clock       service.Clock
	refreshTTL  time.Duration
	logger      *slog.Logger
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	SessionRepo repository.RefreshSessionRepository
	Signer      service.TokenSigner
	Tokens      service.OpaqueTokenGenerator
	Clock       service.Clock
	Config      *config.Config
	Logger      *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		sessionRepo: params.SessionRepo,
		signer:      params.Signer,
		tokens:      params.Tokens,
		clock:       params.Clock,
		refreshTTL:  params.Config.Auth.RefreshTokenTTL(),
		logger:      params.Logger,
	}
}

func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateTokenPair replaces every session of the user with a fresh one.
func (srv *sessionService) CreateTokenPair(ctx context.Context, identity entity.Identity, deviceFingerprint string) (*entity.TokenPair, error) {
	return srv.issuePair(ctx, identity, deviceFingerprint, nil)
}

// Refresh burns the presented refresh token. A token presented from another device
// is still burned, which signs the user out everywhere.
func (srv *sessionService) Refresh(ctx context.Context, rawRefreshToken, deviceFingerprint string) (*entity.TokenPair, error) {
	if rawRefreshToken == "" {
		return nil, domainerrors.Unauthorized(domainerrors.ReasonInvalidOrExpired)
	}

	// 1. Atomic single-use consume
	session, err := srv.sessionRepo.Consume(ctx, srv.tokens.Hash(rawRefreshToken), srv.clock.Now())
	if errors.Is(err, repository.ErrRefreshSessionNotFound) {
		srv.log(ctx).Warn("Refresh token invalid or expired")

		return nil, domainerrors.Unauthorized(domainerrors.ReasonInvalidOrExpired)
	}
	if err != nil {
		srv.log(ctx).Error("Failed to consume refresh session", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to consume refresh session")
	}

	// 2. Device binding
	if subtle.ConstantTimeCompare([]byte(session.DeviceFingerprint), []byte(deviceFingerprint)) != 1 {
		srv.log(ctx).Warn("Refresh token presented from another device",
			slog.String("userID", session.UserID.String()),
		)

		return nil, domainerrors.Unauthorized(domainerrors.ReasonDeviceMismatch)
	}

	// 3. Rotate
	parent := session.ID

	return srv.issuePair(ctx, session.Identity(), deviceFingerprint, &parent)
}

// RevokeAll deletes every session of the user.
func (srv *sessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	revoked, err := srv.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		srv.log(ctx).Error("Failed to revoke sessions", slog.String("userID", userID.String()), slog.Any("error", err))

		return errors.Wrap(err, "failed to revoke sessions")
	}

	srv.log(ctx).Info("Sessions revoked", slog.String("userID", userID.String()), slog.Int64("count", revoked))

	return nil
}

// Authenticate validates an access token without consulting the session store.
func (srv *sessionService) Authenticate(ctx context.Context, accessToken string) (*entity.AccessClaims, error) {
	claims, err := srv.signer.Validate(accessToken)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, service.ErrTokenExpired):
		return nil, domainerrors.ErrTokenExpired
	case errors.Is(err, service.ErrTokenMissingClaims):
		srv.log(ctx).Warn("Access token missing claims", slog.Any("error", err))

		return nil, domainerrors.Unauthorized(domainerrors.ReasonMissingClaims)
	default:
		srv.log(ctx).Warn("Access token rejected", slog.Any("error", err))

		return nil, domainerrors.Unauthorized(domainerrors.ReasonMalformed)
	}
}

func (srv *sessionService) issuePair(
	ctx context.Context,
	identity entity.Identity,
	deviceFingerprint string,
	parentID *uuid.UUID,
) (*entity.TokenPair, error) {
	now := srv.clock.Now()

	rawRefresh, refreshHash, err := srv.tokens.Generate()
	if err != nil {
		srv.log(ctx).Error("Failed to generate refresh token", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	session := &entity.RefreshSession{
		ID:                uuid.New(),
		UserID:            identity.UserID,
		Email:             identity.Email,
		Username:          identity.Username,
		TokenHash:         refreshHash,
		DeviceFingerprint: deviceFingerprint,
		ExpiresAt:         now.Add(srv.refreshTTL),
		CreatedAt:         now,
		ParentTokenID:     parentID,
	}
	if err := srv.sessionRepo.Replace(ctx, session); err != nil {
		srv.log(ctx).Error("Failed to store refresh session",
			slog.String("userID", identity.UserID.String()),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(err, "failed to store refresh session")
	}

	accessToken, accessExpiresAt, err := srv.signer.Issue(identity)
	if err != nil {
		srv.log(ctx).Error("Failed to sign access token", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to sign access token")
	}

	return &entity.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     rawRefresh,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}
