package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

type AuditAction string

const (
	AuditLoginSuccess   AuditAction = "LOGIN_SUCCESS"
	AuditLoginFailed    AuditAction = "LOGIN_FAILED"
	AuditLogout         AuditAction = "LOGOUT"
	AuditTokenCreated   AuditAction = "TOKEN_CREATED"
	AuditTokenRevoked   AuditAction = "TOKEN_REVOKED"
	AuditTokenRotated   AuditAction = "TOKEN_ROTATED"
	AuditTokenDeleted   AuditAction = "TOKEN_DELETED"
	AuditExportData     AuditAction = "EXPORT_DATA"
	AuditSettingChanged AuditAction = "SETTING_CHANGED"
	AuditUserCreated    AuditAction = "USER_CREATED"
	AuditTenantCreated  AuditAction = "TENANT_CREATED"
	AuditTenantDeleted  AuditAction = "TENANT_DELETED"
)

var AuditActions = []AuditAction{
	AuditLoginSuccess, AuditLoginFailed, AuditLogout,
	AuditTokenCreated, AuditTokenRevoked, AuditTokenRotated, AuditTokenDeleted,
	AuditExportData, AuditSettingChanged, AuditUserCreated,
	AuditTenantCreated, AuditTenantDeleted,
}

func (a AuditAction) IsValid() bool {
	for _, known := range AuditActions {
		if a == known {
			return true
		}
	}
	return false
}

type AuditLog struct {
	ID        uuid.UUID   `json:"id"`
	Action    AuditAction `json:"action"`
	UserID    *uuid.UUID  `json:"user_id,omitempty"`
	UserEmail string      `json:"user_email"`
	Details   null.String `json:"details"`
	IPAddress null.String `json:"ip_address"`
	CreatedAt time.Time   `json:"created_at"`
}

// Actor identifies who performed an operator action.
type Actor struct {
	UserID *uuid.UUID
	Email  string
	IP     string
}

// SystemActor is used by background jobs and the CLI.
var SystemActor = Actor{Email: "system"}

type AuditLogFilter struct {
	Action *AuditAction
}
