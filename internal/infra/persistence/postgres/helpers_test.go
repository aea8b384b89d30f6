package postgres

import (
	"context"
	"testing"
	"time"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testNow is whole-second UTC so SQLite's text timestamps compare in order.
var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email, username string) *entity.User {
	t.Helper()

	user := &entity.User{
		Email:        email,
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))

	return user
}

func newTestSession(userID uuid.UUID, tokenHash string, expiresAt time.Time) *entity.RefreshSession {
	return &entity.RefreshSession{
		UserID:            userID,
		Email:             "a@x.com",
		Username:          "alice",
		TokenHash:         tokenHash,
		DeviceFingerprint: "device-1",
		ExpiresAt:         expiresAt,
		CreatedAt:         testNow,
	}
}
