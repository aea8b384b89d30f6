package redis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requires Redis running on localhost:6379
const testRedisAddr = "localhost:6379"

func setupTestRepo(t *testing.T) (repository.RefreshSessionRepository, *goredis.Client) {
	t.Helper()

	client := goredis.NewClient(&goredis.Options{Addr: testRedisAddr})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	prefix := fmt.Sprintf("gatekeeper-test:%s:", uuid.NewString())
	t.Cleanup(func() {
		cleanupKeys(ctx, client, prefix+"*")
		_ = client.Close()
	})

	return NewRefreshSessionRepository(client, prefix), client
}

func cleanupKeys(ctx context.Context, client *goredis.Client, pattern string) {
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

func newSession(userID uuid.UUID, tokenHash string) *entity.RefreshSession {
	now := time.Now().UTC().Truncate(time.Second)

	return &entity.RefreshSession{
		UserID:            userID,
		Email:             "a@x.com",
		Username:          "alice",
		TokenHash:         tokenHash,
		DeviceFingerprint: "device-1",
		CreatedAt:         now,
		ExpiresAt:         now.Add(time.Hour),
	}
}

func TestRedisRefreshSession_ReplaceKeepsSingleSession(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := range 4 {
		require.NoError(t, repo.Replace(ctx, newSession(userID, fmt.Sprintf("hash-%d", i))))
	}

	count, err := repo.CountByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.Consume(ctx, "hash-0", time.Now())
	assert.ErrorIs(t, err, repository.ErrRefreshSessionNotFound)

	session, err := repo.Consume(ctx, "hash-3", time.Now())
	require.NoError(t, err)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, "device-1", session.DeviceFingerprint)

	count, err = repo.CountByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRedisRefreshSession_ConcurrentConsumeHasOneWinner(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Replace(ctx, newSession(uuid.New(), "hash")))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Consume(ctx, "hash", time.Now()); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisRefreshSession_ExpiredAtReadTime(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	session := newSession(uuid.New(), "hash")
	require.NoError(t, repo.Replace(ctx, session))

	_, err := repo.Consume(ctx, "hash", session.ExpiresAt)
	assert.ErrorIs(t, err, repository.ErrRefreshSessionNotFound)

	// burned even though it was expired
	_, err = repo.Consume(ctx, "hash", time.Now())
	assert.ErrorIs(t, err, repository.ErrRefreshSessionNotFound)
}

func TestRedisRefreshSession_DeleteByUserID(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	require.NoError(t, repo.Replace(ctx, newSession(userID, "hash")))

	removed, err := repo.DeleteByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.Consume(ctx, "hash", time.Now())
	assert.ErrorIs(t, err, repository.ErrRefreshSessionNotFound)

	removed, err = repo.DeleteByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRedisRefreshSession_KeysCarryTTL(t *testing.T) {
	repo, client := setupTestRepo(t)
	ctx := context.Background()
	session := newSession(uuid.New(), "hash")
	require.NoError(t, repo.Replace(ctx, session))

	impl := repo.(*refreshSessionRepository)
	ttl, err := client.PTTL(ctx, impl.sessionKey("hash")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 58*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestRedisRefreshSession_KeysExpireAtSessionExpiry(t *testing.T) {
	repo, client := setupTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	session := newSession(userID, "hash")
	session.ExpiresAt = session.CreatedAt.Add(90*time.Minute + 123*time.Millisecond)
	require.NoError(t, repo.Replace(ctx, session))

	impl := repo.(*refreshSessionRepository)
	for _, key := range []string{impl.sessionKey("hash"), impl.userKey(userID)} {
		expireAt, err := client.PExpireTime(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, session.ExpiresAt.UnixMilli(), expireAt.Milliseconds(), key)
	}
}

func TestRedisRefreshSession_RejectsExpiredSession(t *testing.T) {
	repo, _ := setupTestRepo(t)
	session := newSession(uuid.New(), "hash")
	session.ExpiresAt = time.Now().Add(-time.Second)

	err := repo.Replace(context.Background(), session)
	assert.ErrorIs(t, err, errSessionExpired)

	count, err := repo.CountByUserID(context.Background(), session.UserID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
