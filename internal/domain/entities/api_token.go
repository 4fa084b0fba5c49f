package entities

import (
	"time"

	"github.com/google/uuid"
)

// ApiToken is an ingest credential. Only the lookup hash and a redacted
// preview of the raw token are stored.
type ApiToken struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenant_id"`
	Name             string     `json:"name"`
	TokenHash        string     `json:"-"`
	TokenPreview     string     `json:"token_preview"`
	IsActive         bool       `json:"is_active"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	GracePeriodUntil *time.Time `json:"grace_period_until,omitempty"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
	CreatedBy        *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TokenState is the lifecycle state of a token at a given instant.
type TokenState string

const (
	TokenStateActive      TokenState = "active"
	TokenStateGrace       TokenState = "grace"
	TokenStateRevoked     TokenState = "revoked"
	TokenStateGraceLapsed TokenState = "grace_lapsed"
	TokenStateExpired     TokenState = "expired"
)

// State resolves the lifecycle state. An inactive token is checked against
// its grace window first; expires_at is checked independently afterwards and
// wins over a live grace window.
func (t *ApiToken) State(now time.Time) TokenState {
	if !t.IsActive {
		if t.GracePeriodUntil == nil {
			return TokenStateRevoked
		}
		if now.After(*t.GracePeriodUntil) {
			return TokenStateGraceLapsed
		}
	}
	if t.ExpiresAt != nil && now.After(*t.ExpiresAt) {
		return TokenStateExpired
	}
	if !t.IsActive {
		return TokenStateGrace
	}
	return TokenStateActive
}

// Usable reports whether the token may authenticate an ingest at now.
func (t *ApiToken) Usable(now time.Time) bool {
	state := t.State(now)
	return state == TokenStateActive || state == TokenStateGrace
}

// AuthOutcome is the result class of an ingest authentication attempt.
type AuthOutcome string

const (
	AuthAuthenticated    AuthOutcome = "authenticated"
	AuthRejectedMissing  AuthOutcome = "missing"
	AuthRejectedNotFound AuthOutcome = "not_found"
	AuthRejectedRevoked  AuthOutcome = "revoked"
	AuthRejectedExpired  AuthOutcome = "expired"
)

// ExpiryKind tells a hard expiry apart from a lapsed rotation grace window.
type ExpiryKind string

const (
	ExpiryNone        ExpiryKind = ""
	ExpiryHard        ExpiryKind = "expires_at"
	ExpiryGraceLapsed ExpiryKind = "grace_period"
)

type AuthResult struct {
	Outcome  AuthOutcome
	Expiry   ExpiryKind
	TenantID uuid.UUID
	TokenID  uuid.UUID
}

func (r *AuthResult) Authenticated() bool {
	return r != nil && r.Outcome == AuthAuthenticated
}

type CreateApiTokenInput struct {
	TenantID  uuid.UUID  `json:"tenant_id" binding:"required"`
	Name      string     `json:"name" binding:"required,min=1,max=100"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// IssuedApiToken carries the raw token. It is returned once, at issuance.
type IssuedApiToken struct {
	ApiToken *ApiToken `json:"api_token"`
	RawToken string    `json:"token"`
}

type RotateApiTokenResult struct {
	Previous    *ApiToken       `json:"previous"`
	Replacement *IssuedApiToken `json:"replacement"`
}

type ApiTokenFilter struct {
	TenantID *uuid.UUID
}
