package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
)

type Event struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	TenantID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_events_tenant_timestamp,priority:1"`
	Timestamp        time.Time      `gorm:"not null;index:idx_events_tenant_timestamp,priority:2"`
	SourceIP         string         `gorm:"type:varchar(64);not null"`
	DeclaredSourceIP null.String    `gorm:"type:varchar(64)"`
	Service          string         `gorm:"type:varchar(32);not null;index"`
	Path             string         `gorm:"type:text;not null"`
	Method           string         `gorm:"type:varchar(16);not null"`
	UserAgent        string         `gorm:"type:text"`
	Username         null.String    `gorm:"type:varchar(255)"`
	Headers          string         `gorm:"type:jsonb;default:'{}'"`
	Body             string         `gorm:"type:text"`
	PayloadSize      int            `gorm:"not null;default:0"`
	RiskScore        int            `gorm:"not null;default:0;index"`
	Country          null.String    `gorm:"type:varchar(64)"`
	ASN              null.String    `gorm:"column:asn;type:varchar(64)"`
	Org              null.String    `gorm:"type:varchar(255)"`
	Tags             pq.StringArray `gorm:"type:text[]"`
	Notes            null.String    `gorm:"type:text"`
	CreatedAt        time.Time
}
