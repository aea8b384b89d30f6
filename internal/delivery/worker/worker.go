// Package worker runs the periodic expiry sweep as a delivery.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/delivery"
	"gatekeeper/internal/infra/metrics"
	"gatekeeper/internal/usecase"

	"go.uber.org/fx"
)

const (
	collectionPendingRegistrations = "pending_registrations"
	collectionRefreshSessions      = "refresh_sessions"
	collectionPasswordResetTokens  = "password_reset_tokens"
)

type expiryWorker struct {
	cfg      config.ExpiryConfig
	logger   *slog.Logger
	expiry   usecase.ExpiryUsecase
	metrics  *metrics.Metrics
	stopCh   chan struct{}
	stopOnce sync.Once
}

// WorkerParams holds dependencies for the expiry worker
type WorkerParams struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     *config.Config
	Logger  *slog.Logger
	Expiry  usecase.ExpiryUsecase
	Metrics *metrics.Metrics
}

// NewExpiryWorker creates the sweep loop and registers its stop hook.
func NewExpiryWorker(params WorkerParams) (delivery.Delivery, error) {
	w := newExpiryWorker(*params.Cfg.Expiry, params.Logger, params.Expiry, params.Metrics)

	params.Lc.Append(fx.Hook{
		OnStop: w.stop,
	})

	return w, nil
}

func newExpiryWorker(cfg config.ExpiryConfig, logger *slog.Logger, expiry usecase.ExpiryUsecase, m *metrics.Metrics) *expiryWorker {
	return &expiryWorker{
		cfg:     cfg,
		logger:  logger,
		expiry:  expiry,
		metrics: m,
		stopCh:  make(chan struct{}),
	}
}

// Serve sweeps once per interval until ctx is cancelled or the worker is stopped.
func (w *expiryWorker) Serve(ctx context.Context) error {
	if !w.cfg.Enabled {
		w.logger.Info("Expiry worker disabled")

		return nil
	}

	w.logger.Info("Starting expiry worker", slog.Duration("interval", w.cfg.Interval))

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs one bounded pass. Failures are logged and retried on the next tick.
func (w *expiryWorker) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	result, err := w.expiry.SweepExpired(sweepCtx)
	removed := map[string]int64{}
	if result != nil {
		removed[collectionPendingRegistrations] = result.PendingRegistrations
		removed[collectionRefreshSessions] = result.RefreshSessions
		removed[collectionPasswordResetTokens] = result.PasswordResetTokens
	}
	w.metrics.RecordSweep(removed, err)

	if err != nil {
		w.logger.Error("Expiry sweep failed", slog.Any("error", err))

		return
	}

	w.logger.Debug("Expiry sweep finished",
		slog.Int64(collectionPendingRegistrations, removed[collectionPendingRegistrations]),
		slog.Int64(collectionRefreshSessions, removed[collectionRefreshSessions]),
		slog.Int64(collectionPasswordResetTokens, removed[collectionPasswordResetTokens]),
	)
}

func (w *expiryWorker) stop(_ context.Context) error {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping expiry worker")
		close(w.stopCh)
	})

	return nil
}
