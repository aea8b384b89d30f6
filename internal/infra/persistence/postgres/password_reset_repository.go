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

type passwordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository is the constructor for passwordResetRepository.
func NewPasswordResetRepository(db *gorm.DB) repository.PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

// Replace drops the user's earlier tokens and inserts token. Run it inside txManager.Execute.
func (repo *passwordResetRepository) Replace(ctx context.Context, token *entity.PasswordResetToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	tokenM := fromPasswordResetDomain(token)

	db := repo.db.WithContext(ctx)
	if err := db.Where("user_id = ?", token.UserID).Delete(&model.PasswordResetTokenModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete previous reset tokens")
	}
	if err := db.Create(tokenM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrPasswordResetTokenExists
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create reset token")
	}

	token.CreatedAt = tokenM.CreatedAt

	return nil
}

func (repo *passwordResetRepository) ExistsLiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.PasswordResetTokenModel{}).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Count(&count).Error; err != nil {
		return false, errors.WithStack(err)
	}

	return count > 0, nil
}

// Consume deletes the live token with tokenHash and returns it, in one DELETE ... RETURNING.
func (repo *passwordResetRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (*entity.PasswordResetToken, error) {
	var deleted []model.PasswordResetTokenModel

	err := repo.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("token_hash = ? AND expires_at > ?", tokenHash, now).
		Delete(&deleted).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to consume reset token")
	}
	if len(deleted) == 0 {
		return nil, repository.ErrPasswordResetTokenNotFound
	}

	return toPasswordResetDomain(&deleted[0]), nil
}

func (repo *passwordResetRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.PasswordResetTokenModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete reset tokens")
	}

	return nil
}

func (repo *passwordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.PasswordResetTokenModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired reset tokens")
	}

	return result.RowsAffected, nil
}

func toPasswordResetDomain(data *model.PasswordResetTokenModel) *entity.PasswordResetToken {
	return &entity.PasswordResetToken{
		ID:        data.ID,
		UserID:    data.UserID,
		TokenHash: data.TokenHash,
		ExpiresAt: data.ExpiresAt,
		CreatedAt: data.CreatedAt,
	}
}

func fromPasswordResetDomain(data *entity.PasswordResetToken) *model.PasswordResetTokenModel {
	return &model.PasswordResetTokenModel{
		ID:        data.ID,
		UserID:    data.UserID,
		TokenHash: data.TokenHash,
		ExpiresAt: data.ExpiresAt,
		CreatedAt: data.CreatedAt,
	}
}
