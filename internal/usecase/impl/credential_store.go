// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// CredentialStore owns password hashing, the strength gate and identity uniqueness.
type CredentialStore struct {
	hasher service.PasswordHasher
	policy service.PasswordPolicy
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// CredentialStoreParams holds dependencies for CredentialStore, injected by Fx.
type CredentialStoreParams struct {
	fx.In

	Hasher service.PasswordHasher
	Policy service.PasswordPolicy
	Logger *slog.Logger
}

// NewCredentialStore is the constructor for CredentialStore.
func NewCredentialStore(params CredentialStoreParams) *CredentialStore {
	return &CredentialStore{
		hasher: params.Hasher,
		policy: params.Policy,
		logger: params.Logger,
	}
}

func (cs *CredentialStore) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, cs.logger)
}

// Hash computes the argon2id hash of password.
func (cs *CredentialStore) Hash(password string) (string, error) {
	hash, err := cs.hasher.Hash(password)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	return hash, nil
}

// Verify reports whether password matches hash.
func (cs *CredentialStore) Verify(password, hash string) bool {
	return cs.hasher.Verify(password, hash)
}

// IsStrong applies the password strength policy.
func (cs *CredentialStore) IsStrong(password string) bool {
	return cs.policy.IsStrong(password)
}

// EnsureAvailable fails with ErrIdentityTaken when a user or a live pending registration holds the email or username.
func (cs *CredentialStore) EnsureAvailable(
	ctx context.Context,
	users repository.UserRepository,
	pending repository.PendingRegistrationRepository,
	email, username string,
	now time.Time,
) error {
	taken, err := users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return errors.Wrap(err, "failed to check users")
	}
	if taken {
		return domainerrors.ErrIdentityTaken
	}

	taken, err = pending.ExistsByEmailOrUsername(ctx, email, username, now)
	if err != nil {
		return errors.Wrap(err, "failed to check pending registrations")
	}
	if taken {
		return domainerrors.ErrIdentityTaken.WithReason(domainerrors.ReasonAlreadyPending)
	}

	return nil
}

// Authenticate resolves identifier as an email first and then as a username, and checks the password.
// Every failure is the same Unauthorized error. A missing user still pays for one hash verification.
func (cs *CredentialStore) Authenticate(ctx context.Context, users repository.UserRepository, identifier, password string) (*entity.User, error) {
	user, err := users.FindByEmail(ctx, normalizeEmail(identifier))
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = users.FindByUsername(ctx, strings.TrimSpace(identifier))
	}

	if errors.Is(err, repository.ErrUserNotFound) {
		cs.hasher.Verify(password, cs.dummy())
		cs.log(ctx).Warn("Login for unknown identity")

		return nil, domainerrors.Unauthorized(domainerrors.ReasonInvalidCredentials)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up user")
	}

	if !cs.hasher.Verify(password, user.PasswordHash) {
		cs.log(ctx).Warn("Password mismatch", slog.String("userID", user.ID.String()))

		return nil, domainerrors.Unauthorized(domainerrors.ReasonInvalidCredentials)
	}

	return user, nil
}

func (cs *CredentialStore) dummy() string {
	cs.dummyOnce.Do(func() {
		hash, err := cs.hasher.Hash("timing-equalizer-Passw0rd!")
		if err != nil {
			cs.logger.Error("Failed to prepare dummy hash", slog.Any("error", err))

			return
		}
		cs.dummyHash = hash
	})

	return cs.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
