package postgres

import (
	"context"
	"testing"
	"time"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPending(email, username, tokenHash string, expiresAt time.Time) *entity.PendingRegistration {
	return &entity.PendingRegistration{
		Email:                 email,
		Username:              username,
		PasswordHash:          "hash",
		VerificationTokenHash: tokenHash,
		ExpiresAt:             expiresAt,
		CreatedAt:             testNow,
	}
}

func TestPendingRegistrationRepository_CreateFindDelete(t *testing.T) {
	repo := NewPendingRegistrationRepository(setupTestDB(t))
	ctx := context.Background()

	pending := newTestPending("a@x.com", "alice", "hash-1", testNow.Add(30*time.Minute))
	require.NoError(t, repo.Create(ctx, pending))

	found, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, pending.ID, found.ID)
	assert.Equal(t, "hash-1", found.VerificationTokenHash)
	assert.True(t, found.ExpiresAt.Equal(pending.ExpiresAt))

	require.NoError(t, repo.Delete(ctx, pending.ID))
	_, err = repo.FindByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, repository.ErrPendingRegistrationNotFound)

	// deleting twice is not an error
	assert.NoError(t, repo.Delete(ctx, pending.ID))
}

func TestPendingRegistrationRepository_UniqueFields(t *testing.T) {
	repo := NewPendingRegistrationRepository(setupTestDB(t))
	ctx := context.Background()
	expires := testNow.Add(30 * time.Minute)

	require.NoError(t, repo.Create(ctx, newTestPending("a@x.com", "alice", "hash-1", expires)))

	assert.ErrorIs(t, repo.Create(ctx, newTestPending("a@x.com", "bob", "hash-2", expires)), repository.ErrPendingRegistrationConflict)
	assert.ErrorIs(t, repo.Create(ctx, newTestPending("b@x.com", "alice", "hash-3", expires)), repository.ErrPendingRegistrationConflict)
	assert.ErrorIs(t, repo.Create(ctx, newTestPending("c@x.com", "carol", "hash-1", expires)), repository.ErrPendingRegistrationConflict)
}

func TestPendingRegistrationRepository_LiveAndExpired(t *testing.T) {
	repo := NewPendingRegistrationRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestPending("live@x.com", "live", "hash-live", testNow.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newTestPending("old@x.com", "old", "hash-old", testNow.Add(-time.Minute))))

	exists, err := repo.ExistsByEmailOrUsername(ctx, "live@x.com", "nobody", testNow)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmailOrUsername(ctx, "nobody@x.com", "old", testNow)
	require.NoError(t, err)
	assert.False(t, exists, "expired registrations do not block signup")

	require.NoError(t, repo.DeleteExpiredByEmailOrUsername(ctx, "nobody@x.com", "old", testNow))
	_, err = repo.FindByEmail(ctx, "old@x.com")
	assert.ErrorIs(t, err, repository.ErrPendingRegistrationNotFound)

	require.NoError(t, repo.Create(ctx, newTestPending("old2@x.com", "old2", "hash-old2", testNow.Add(-time.Second))))
	removed, err := repo.DeleteExpired(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByEmail(ctx, "live@x.com")
	assert.NoError(t, err)
}
