// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"gatekeeper/config"
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/delivery/http/router/handler"
	"gatekeeper/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler     *handler.AuthHandler
	SettingsHandler *handler.SettingsHandler
	AuthMiddleware  *middleware.AuthMiddleware
	Metrics         *metrics.Metrics
	Config          *config.Config
}

// Router holds all the handlers that need to be registered.
type Router struct {
	authHandler     *handler.AuthHandler
	settingsHandler *handler.SettingsHandler
	authMiddleware  *middleware.AuthMiddleware
	metrics         *metrics.Metrics
	limits          config.RateLimitConfig
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *Router {
	limits := config.RateLimitConfig{}
	if rl := params.Config.HTTP.RateLimit; rl != nil && rl.Enabled {
		limits = *rl
	}

	return &Router{
		authHandler:     params.AuthHandler,
		settingsHandler: params.SettingsHandler,
		authMiddleware:  params.AuthMiddleware,
		metrics:         params.Metrics,
		limits:          limits,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *Router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(r.metrics.Handler()))

	limit := middleware.RateLimit

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", r.authHandler.Signup, limit(r.limits.Signup))
		authGroup.POST("/authenticate", r.authHandler.Authenticate, limit(r.limits.Authenticate))
		authGroup.POST("/login", r.authHandler.Login, limit(r.limits.Login))
		authGroup.POST("/refresh", r.authHandler.Refresh, limit(r.limits.Refresh))
		authGroup.POST("/logout", r.authHandler.Logout, limit(r.limits.Logout), r.authMiddleware.Authenticate)
		authGroup.POST("/forgot-password", r.authHandler.ForgotPassword, limit(r.limits.PasswordReset))
		authGroup.POST("/reset-password", r.authHandler.ResetPassword, limit(r.limits.PasswordReset))
	}

	settingsGroup := e.Group("/settings")
	settingsGroup.Use(r.authMiddleware.Authenticate)
	{
		settingsGroup.GET("", r.settingsHandler.GetSettings, limit(r.limits.SettingsRead))
		settingsGroup.POST("/bodyweight", r.settingsHandler.UpdateBodyweight, limit(r.limits.SettingsUpdate))
	}
}
