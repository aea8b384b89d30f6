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
)

type pendingRegistrationRepository struct {
	db *gorm.DB
}

// NewPendingRegistrationRepository is the constructor for pendingRegistrationRepository.
func NewPendingRegistrationRepository(db *gorm.DB) repository.PendingRegistrationRepository {
	return &pendingRegistrationRepository{db: db}
}

func (repo *pendingRegistrationRepository) Create(ctx context.Context, pending *entity.PendingRegistration) error {
	if pending.ID == uuid.Nil {
		pending.ID = uuid.New()
	}
	pendingM := fromPendingRegistrationDomain(pending)

	if err := repo.db.WithContext(ctx).Create(pendingM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrPendingRegistrationConflict
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create pending registration")
	}

	pending.CreatedAt = pendingM.CreatedAt

	return nil
}

func (repo *pendingRegistrationRepository) FindByEmail(ctx context.Context, email string) (*entity.PendingRegistration, error) {
	var pendingM model.PendingRegistrationModel
	if err := repo.db.WithContext(ctx).Where("email = ?", email).Take(&pendingM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPendingRegistrationNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toPendingRegistrationDomain(&pendingM), nil
}

func (repo *pendingRegistrationRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string, now time.Time) (bool, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.PendingRegistrationModel{}).
		Where("(email = ? OR username = ?) AND expires_at > ?", email, username, now).
		Count(&count).Error; err != nil {
		return false, errors.WithStack(err)
	}

	return count > 0, nil
}

func (repo *pendingRegistrationRepository) DeleteExpiredByEmailOrUsername(ctx context.Context, email, username string, now time.Time) error {
	if err := repo.db.WithContext(ctx).
		Where("(email = ? OR username = ?) AND expires_at <= ?", email, username, now).
		Delete(&model.PendingRegistrationModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to purge expired pending registrations")
	}

	return nil
}

func (repo *pendingRegistrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PendingRegistrationModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete pending registration")
	}

	return nil
}

func (repo *pendingRegistrationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.PendingRegistrationModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired pending registrations")
	}

	return result.RowsAffected, nil
}

func toPendingRegistrationDomain(data *model.PendingRegistrationModel) *entity.PendingRegistration {
	return &entity.PendingRegistration{
		ID:                    data.ID,
		Email:                 data.Email,
		Username:              data.Username,
		PasswordHash:          data.PasswordHash,
		VerificationTokenHash: data.VerificationTokenHash,
		ExpiresAt:             data.ExpiresAt,
		CreatedAt:             data.CreatedAt,
	}
}

func fromPendingRegistrationDomain(data *entity.PendingRegistration) *model.PendingRegistrationModel {
	return &model.PendingRegistrationModel{
		ID:                    data.ID,
		Email:                 data.Email,
		Username:              data.Username,
		PasswordHash:          data.PasswordHash,
		VerificationTokenHash: data.VerificationTokenHash,
		ExpiresAt:             data.ExpiresAt,
		CreatedAt:             data.CreatedAt,
	}
}
