package handler

import (
	"net/http"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/delivery/http/response"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// SettingsHandlerParams holds dependencies for SettingsHandler, injected by Fx.
type SettingsHandlerParams struct {
	fx.In

	Settings usecase.SettingsUsecase
}

// SettingsHandler serves the per-user settings routes.
type SettingsHandler struct {
	settings usecase.SettingsUsecase
}

// NewSettingsHandler is the constructor for SettingsHandler
func NewSettingsHandler(params SettingsHandlerParams) *SettingsHandler {
	return &SettingsHandler{settings: params.Settings}
}

// GetSettings handles GET /settings
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return domainerrors.Unauthorized(domainerrors.ReasonMissingClaims)
	}

	settings, err := h.settings.GetSettings(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, SettingsResponse{Bodyweight: settings.Bodyweight}, "")
}

// UpdateBodyweight handles POST /settings/bodyweight
func (h *SettingsHandler) UpdateBodyweight(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return domainerrors.Unauthorized(domainerrors.ReasonMissingClaims)
	}

	var req BodyweightRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	settings, err := h.settings.UpdateBodyweight(c.Request().Context(), userID, req.Bodyweight)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, SettingsResponse{Bodyweight: settings.Bodyweight}, "Bodyweight updated")
}
