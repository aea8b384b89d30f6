package postgres

import (
	"context"
	"testing"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "a@x.com", "alice")
	assert.NotEqual(t, uuid.Nil, user.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)
	assert.Nil(t, byID.Bodyweight)

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	_, err = repo.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_UniqueEmailAndUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "a@x.com", "alice")

	err := repo.Create(ctx, &entity.User{Email: "a@x.com", Username: "other", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)

	err = repo.Create(ctx, &entity.User{Email: "b@x.com", Username: "alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)
}

func TestUserRepository_ExistsByEmailOrUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "a@x.com", "alice")

	for _, tc := range []struct {
		email, username string
		want            bool
	}{
		{"a@x.com", "nobody", true},
		{"nobody@x.com", "alice", true},
		{"nobody@x.com", "nobody", false},
	} {
		exists, err := repo.ExistsByEmailOrUsername(ctx, tc.email, tc.username)
		require.NoError(t, err)
		assert.Equal(t, tc.want, exists, "%s/%s", tc.email, tc.username)
	}
}

func TestUserRepository_Updates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "a@x.com", "alice")

	require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "new-hash"))
	require.NoError(t, repo.UpdateBodyweight(ctx, user.ID, 72.5))

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", stored.PasswordHash)
	require.NotNil(t, stored.Bodyweight)
	assert.InDelta(t, 72.5, *stored.Bodyweight, 0.0001)

	assert.ErrorIs(t, repo.UpdateBodyweight(ctx, uuid.New(), 80), repository.ErrUserNotFound)
}

func TestUserRepository_AcquireSessionMutex(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "a@x.com", "alice")

	assert.NoError(t, repo.AcquireSessionMutex(ctx, user.ID))
	assert.ErrorIs(t, repo.AcquireSessionMutex(ctx, uuid.New()), repository.ErrUserNotFound)
}
