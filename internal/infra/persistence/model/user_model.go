package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. IDs are generated by the application.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	Username     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_users_username"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Bodyweight   *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// PendingRegistrationModel mirrors the 'pending_registrations' table.
type PendingRegistrationModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email                 string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_pending_registrations_email"`
	Username              string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_pending_registrations_username"`
	PasswordHash          string    `gorm:"type:varchar(255);not null"`
	VerificationTokenHash string    `gorm:"type:char(64);not null;uniqueIndex:idx_pending_registrations_token_hash"`
	ExpiresAt             time.Time `gorm:"not null;index:idx_pending_registrations_expires_at"`
	CreatedAt             time.Time
}

// TableName explicitly sets the table name for GORM.
func (PendingRegistrationModel) TableName() string {
	return "pending_registrations"
}
