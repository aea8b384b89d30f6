package model

import (
	"time"

	"github.com/google/uuid"
)

// RefreshSessionModel mirrors the 'refresh_sessions' table.
type RefreshSessionModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index:idx_refresh_sessions_user_id"`
	Email             string     `gorm:"type:varchar(255);not null"`
	Username          string     `gorm:"type:varchar(100);not null"`
	TokenHash         string     `gorm:"type:char(64);not null;uniqueIndex:idx_refresh_sessions_token_hash"`
	DeviceFingerprint string     `gorm:"type:varchar(255);not null"`
	ExpiresAt         time.Time  `gorm:"not null;index:idx_refresh_sessions_expires_at"`
	CreatedAt         time.Time
	ParentTokenID     *uuid.UUID `gorm:"type:uuid"`
}

// TableName explicitly sets the table name for GORM.
func (RefreshSessionModel) TableName() string {
	return "refresh_sessions"
}

// PasswordResetTokenModel mirrors the 'password_reset_tokens' table.
type PasswordResetTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_password_reset_tokens_user_id"`
	TokenHash string    `gorm:"type:char(64);not null;uniqueIndex:idx_password_reset_tokens_token_hash"`
	ExpiresAt time.Time `gorm:"not null;index:idx_password_reset_tokens_expires_at"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (PasswordResetTokenModel) TableName() string {
	return "password_reset_tokens"
}

// All lists every model managed by AutoMigrate.
func All() []any {
	return []any{
		&UserModel{},
		&PendingRegistrationModel{},
		&RefreshSessionModel{},
		&PasswordResetTokenModel{},
	}
}
