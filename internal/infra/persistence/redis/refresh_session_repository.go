package redis

import (
	"context"
	"encoding/json"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Keys:
//
//	<prefix>session:<token hash>  JSON session, expiring at expires_at (PXAT)
//	<prefix>user_session:<user id> token hash of the user's live session, same expiry
//
// The scripts touch keys derived at run time, so they assume a single Redis node.
var (
	// replaceScript returns 0 without writing when ARGV[2] (unix ms) is not in the future.
	replaceScript = goredis.NewScript(`
local t = redis.call('TIME')
if tonumber(ARGV[2]) <= tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000) then
	return 0
end
local old = redis.call('GET', KEYS[1])
if old then
	redis.call('DEL', ARGV[4] .. old)
end
redis.call('SET', KEYS[2], ARGV[1], 'PXAT', ARGV[2])
redis.call('SET', KEYS[1], ARGV[3], 'PXAT', ARGV[2])
return 1
`)

	// releaseUserScript clears the user pointer only if it still names the consumed session.
	releaseUserScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

	revokeScript = goredis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	return 0
end
local removed = redis.call('DEL', ARGV[1] .. current)
redis.call('DEL', KEYS[1])
return removed
`)
)

var errSessionExpired = errors.New("refresh session already expired")

type sessionRecord struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	TokenHash         string     `json:"token_hash"`
	DeviceFingerprint string     `json:"device_fingerprint"`
	ExpiresAt         time.Time  `json:"expires_at"`
	CreatedAt         time.Time  `json:"created_at"`
	ParentTokenID     *uuid.UUID `json:"parent_token_id,omitempty"`
}

type refreshSessionRepository struct {
	client *goredis.Client
	prefix string
}

// NewRefreshSessionRepository returns a RefreshSessionRepository backed by Redis.
func NewRefreshSessionRepository(client *goredis.Client, prefix string) repository.RefreshSessionRepository {
	return &refreshSessionRepository{client: client, prefix: prefix}
}

func (repo *refreshSessionRepository) sessionKeyPrefix() string {
	return repo.prefix + "session:"
}

func (repo *refreshSessionRepository) sessionKey(tokenHash string) string {
	return repo.sessionKeyPrefix() + tokenHash
}

func (repo *refreshSessionRepository) userKey(userID uuid.UUID) string {
	return repo.prefix + "user_session:" + userID.String()
}

// Replace swaps the user's session for session in one script run.
// Both keys expire at session.ExpiresAt; the repository keeps no clock of its own.
func (repo *refreshSessionRepository) Replace(ctx context.Context, session *entity.RefreshSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	payload, err := json.Marshal(fromRefreshSessionDomain(session))
	if err != nil {
		return errors.Wrap(err, "failed to encode refresh session")
	}

	keys := []string{repo.userKey(session.UserID), repo.sessionKey(session.TokenHash)}
	stored, err := replaceScript.Run(ctx, repo.client, keys,
		payload, session.ExpiresAt.UnixMilli(), session.TokenHash, repo.sessionKeyPrefix()).Int64()
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to store refresh session")
	}
	if stored == 0 {
		return errors.WithStack(errSessionExpired)
	}

	return nil
}

// Consume takes the session with GETDEL, so only one caller can ever read it.
func (repo *refreshSessionRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (*entity.RefreshSession, error) {
	payload, err := repo.client.GetDel(ctx, repo.sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrRefreshSessionNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to consume refresh session")
	}

	var record sessionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, errors.Wrap(err, "failed to decode refresh session")
	}

	if err := releaseUserScript.Run(ctx, repo.client, []string{repo.userKey(record.UserID)}, tokenHash).Err(); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to release user session pointer")
	}

	session := toRefreshSessionDomain(&record)
	// Key expiry has millisecond precision; the clock passed in has the final say.
	if session.IsExpired(now) {
		return nil, repository.ErrRefreshSessionNotFound
	}

	return session, nil
}

func (repo *refreshSessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	removed, err := revokeScript.Run(ctx, repo.client, []string{repo.userKey(userID)}, repo.sessionKeyPrefix()).Int64()
	if err != nil {
		return 0, domainerrors.NewDatabaseExecuteError(err, "failed to revoke refresh sessions")
	}

	return removed, nil
}

func (repo *refreshSessionRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	tokenHash, err := repo.client.Get(ctx, repo.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}

		return 0, errors.WithStack(err)
	}

	count, err := repo.client.Exists(ctx, repo.sessionKey(tokenHash)).Result()
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return count, nil
}

// DeleteExpired is a no-op: Redis drops expired keys itself.
func (repo *refreshSessionRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func toRefreshSessionDomain(data *sessionRecord) *entity.RefreshSession {
	return &entity.RefreshSession{
		ID:                data.ID,
		UserID:            data.UserID,
		Email:             data.Email,
		Username:          data.Username,
		TokenHash:         data.TokenHash,
		DeviceFingerprint: data.DeviceFingerprint,
		ExpiresAt:         data.ExpiresAt,
		CreatedAt:         data.CreatedAt,
		ParentTokenID:     data.ParentTokenID,
	}
}

func fromRefreshSessionDomain(data *entity.RefreshSession) *sessionRecord {
	return &sessionRecord{
		ID:                data.ID,
		UserID:            data.UserID,
		Email:             data.Email,
		Username:          data.Username,
		TokenHash:         data.TokenHash,
		DeviceFingerprint: data.DeviceFingerprint,
		ExpiresAt:         data.ExpiresAt,
		CreatedAt:         data.CreatedAt,
		ParentTokenID:     data.ParentTokenID,
	}
}
