package usecase

import (
	"context"

	"github.com/google/uuid"
)

// Settings are the per-user preferences exposed over HTTP.
type Settings struct {
	Bodyweight *float64
}

// SettingsUsecase reads and updates user settings.
type SettingsUsecase interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*Settings, error)
	UpdateBodyweight(ctx context.Context, userID uuid.UUID, bodyweight float64) (*Settings, error)
}
