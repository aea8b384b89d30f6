package impl

import (
	"context"
	"log/slog"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

type authService struct {
	userRepo    repository.UserRepository
	credentials *CredentialStore
	sessions    usecase.SessionUsecase
	logger      *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo    repository.UserRepository
	Credentials *CredentialStore
	Sessions    usecase.SessionUsecase
	Logger      *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		userRepo:    params.UserRepo,
		credentials: params.Credentials,
		sessions:    params.Sessions,
		logger:      params.Logger,
	}
}

func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login checks credentials and replaces any existing session with a new pair.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*entity.TokenPair, error) {
	user, err := srv.credentials.Authenticate(ctx, srv.userRepo, input.EmailOrUsername, input.Password)
	if err != nil {
		return nil, err
	}

	pair, err := srv.sessions.CreateTokenPair(ctx, user.Identity(), input.DeviceFingerprint)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User logged in", slog.String("userID", user.ID.String()))

	return pair, nil
}

// Logout revokes every session of the user.
func (srv *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	return srv.sessions.RevokeAll(ctx, userID)
}
