package models

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	Name          string     `gorm:"type:varchar(100);not null"`
	RetentionDays int        `gorm:"not null;default:30"`
	IsActive      bool       `gorm:"not null;default:true"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
