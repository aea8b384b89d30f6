package usecase

import "context"

// SweepResult counts rows removed by one expiry sweep.
type SweepResult struct {
	PendingRegistrations int64
	RefreshSessions      int64
	PasswordResetTokens  int64
}

// ExpiryUsecase deletes records whose expires_at has passed.
type ExpiryUsecase interface {
	SweepExpired(ctx context.Context) (*SweepResult, error)
}
