package impl

import (
	"context"
	"log/slog"

	deliverycontext "gatekeeper/internal/delivery/context"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const maxBodyweight = 1000

type settingsService struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// SettingsServiceParams holds dependencies for SettingsService, injected by Fx.
type SettingsServiceParams struct {
	fx.In

	UserRepo repository.UserRepository
	Logger   *slog.Logger
}

// NewSettingsService is the constructor for settingsService.
func NewSettingsService(params SettingsServiceParams) usecase.SettingsUsecase {
	return &settingsService{
		userRepo: params.UserRepo,
		logger:   params.Logger,
	}
}

func (srv *settingsService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *settingsService) GetSettings(ctx context.Context, userID uuid.UUID) (*usecase.Settings, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUserNotFound
	}
	if err != nil {
		srv.log(ctx).Error("Failed to load user", slog.String("userID", userID.String()), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to load user")
	}

	return &usecase.Settings{Bodyweight: user.Bodyweight}, nil
}

func (srv *settingsService) UpdateBodyweight(ctx context.Context, userID uuid.UUID, bodyweight float64) (*usecase.Settings, error) {
	if bodyweight <= 0 || bodyweight > maxBodyweight {
		return nil, domainerrors.ErrValidationFailed.WithDetails("bodyweight must be greater than 0 and at most 1000")
	}

	if err := srv.userRepo.UpdateBodyweight(ctx, userID, bodyweight); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}
		srv.log(ctx).Error("Failed to update bodyweight", slog.String("userID", userID.String()), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to update bodyweight")
	}

	return &usecase.Settings{Bodyweight: &bodyweight}, nil
}
