package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

type AuditLog struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	Action    string      `gorm:"type:varchar(32);not null;index"`
	UserID    *uuid.UUID  `gorm:"type:uuid"`
	UserEmail string      `gorm:"type:varchar(255);not null"`
	Details   null.String `gorm:"type:text"`
	IPAddress null.String `gorm:"type:varchar(64)"`
	CreatedAt time.Time
}
