package main

import (
	"context"
	"log/slog"
	"os"

	"gatekeeper/config"
	"gatekeeper/internal/delivery"
	"gatekeeper/internal/delivery/http"
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/delivery/http/router/handler"
	"gatekeeper/internal/delivery/worker"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/infra/auth"
	logs "gatekeeper/internal/infra/log"
	"gatekeeper/internal/infra/mail"
	"gatekeeper/internal/infra/metrics"
	"gatekeeper/internal/infra/persistence/postgres"
	"gatekeeper/internal/infra/persistence/redis"
	"gatekeeper/internal/usecase/impl"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
			metrics.New,
		),
		mail.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewPendingRegistrationRepository,
			postgres.NewPasswordResetRepository,
			postgres.NewTransactionManager,
			newRefreshSessionRepository,
		),
	)
}

type sessionRepoParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
}

// newRefreshSessionRepository picks the session backend named by auth.sessionStore.
// The Redis client is only created when it is selected.
func newRefreshSessionRepository(params sessionRepoParams) repository.RefreshSessionRepository {
	if params.Cfg.Auth.SessionStore == config.SessionStoreRedis {
		client := redis.NewClient(params.Lc, params.Cfg, params.Logger)

		return redis.NewRefreshSessionRepository(client, params.Cfg.Redis.Prefix)
	}

	return postgres.NewRefreshSessionRepository(params.DB)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewArgon2Hasher,
			auth.NewPasswordPolicy,
			auth.NewJWTSigner,
			auth.NewOpaqueTokenGenerator,
			newClock,
		),
	)
}

func newClock() service.Clock {
	return service.SystemClock{}
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewCredentialStore,
			impl.NewSessionService,
			impl.NewRegistrationService,
			impl.NewAuthService,
			impl.NewPasswordResetService,
			impl.NewSettingsService,
			impl.NewExpiryService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewSettingsHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewExpiryWorker,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
