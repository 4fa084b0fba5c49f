package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultRetentionDays = 30
	MinRetentionDays     = 1
	MaxRetentionDays     = 3650
)

// Tenant is an isolated customer workspace owning tokens and events.
type Tenant struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	RetentionDays int        `json:"retention_days"`
	IsActive      bool       `json:"is_active"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CreateTenantInput struct {
	Name          string `json:"name" binding:"required,min=2,max=100"`
	RetentionDays int    `json:"retention_days" binding:"omitempty,min=1,max=3650"`
}

// UpdateTenantInput is a partial update; nil fields are left untouched.
type UpdateTenantInput struct {
	Name          *string `json:"name" binding:"omitempty,min=2,max=100"`
	RetentionDays *int    `json:"retention_days" binding:"omitempty,min=1,max=3650"`
	IsActive      *bool   `json:"is_active"`
}
