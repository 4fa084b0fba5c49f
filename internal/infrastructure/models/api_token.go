package models

import (
	"time"

	"github.com/google/uuid"
)

type ApiToken struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Name             string    `gorm:"type:varchar(100);not null"`
	TokenHash        string    `gorm:"type:varchar(128);uniqueIndex;not null"` // lookup hash, never the raw token
	TokenPreview     string    `gorm:"type:varchar(20);not null"`              // "npt_***abcdef"
	IsActive         bool      `gorm:"not null;default:true"`
	ExpiresAt        *time.Time
	GracePeriodUntil *time.Time
	LastUsedAt       *time.Time
	CreatedBy        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
