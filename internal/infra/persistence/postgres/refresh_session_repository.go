package postgres

import (
	"context"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// refreshSessionRepository implements the domain.RefreshSessionRepository interface.
type refreshSessionRepository struct {
	db *gorm.DB
}

// NewRefreshSessionRepository is the constructor for refreshSessionRepository.
func NewRefreshSessionRepository(db *gorm.DB) repository.RefreshSessionRepository {
	return &refreshSessionRepository{db: db}
}

// Replace locks the owning user row, drops the user's sessions and inserts the new one.
// Concurrent calls for one user queue on the lock, so the last insert survives alone.
func (repo *refreshSessionRepository) Replace(ctx context.Context, session *entity.RefreshSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	sessionM := fromRefreshSessionDomain(session)

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Serialize with other logins of the same user
		if err := NewUserRepository(tx).AcquireSessionMutex(ctx, session.UserID); err != nil {
			return err
		}

		// 2. Single active session per user
		if err := tx.Where("user_id = ?", session.UserID).Delete(&model.RefreshSessionModel{}).Error; err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "failed to delete previous sessions")
		}

		// 3. Insert the new session
		if err := tx.Create(sessionM).Error; err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "failed to create refresh session")
		}

		return nil
	})
	if err != nil {
		return err
	}

	session.CreatedAt = sessionM.CreatedAt

	return nil
}

// Consume deletes the live session with tokenHash and returns it, in one DELETE ... RETURNING.
func (repo *refreshSessionRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (*entity.RefreshSession, error) {
	var deleted []model.RefreshSessionModel

	err := repo.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("token_hash = ? AND expires_at > ?", tokenHash, now).
		Delete(&deleted).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to consume refresh session")
	}
	if len(deleted) == 0 {
		return nil, repository.ErrRefreshSessionNotFound
	}

	return toRefreshSessionDomain(&deleted[0]), nil
}

// DeleteByUserID removes all refresh sessions for a specific user.
func (repo *refreshSessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := repo.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshSessionModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to revoke refresh sessions")
	}

	return result.RowsAffected, nil
}

// CountByUserID returns the number of stored sessions for a user, expired or not.
func (repo *refreshSessionRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.RefreshSessionModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, errors.WithStack(err)
	}

	return count, nil
}

// DeleteExpired removes all expired refresh sessions from the database.
func (repo *refreshSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.RefreshSessionModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired refresh sessions")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

func toRefreshSessionDomain(data *model.RefreshSessionModel) *entity.RefreshSession {
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

func fromRefreshSessionDomain(data *entity.RefreshSession) *model.RefreshSessionModel {
	return &model.RefreshSessionModel{
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
