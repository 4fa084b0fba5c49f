package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// EventTag is an operator-assigned label on an event.
type EventTag string

const (
	TagScanner       EventTag = "scanner"
	TagBruteforce    EventTag = "bruteforce"
	TagFalsePositive EventTag = "false_positive"
	TagWatchlist     EventTag = "watchlist"
	TagSuspicious    EventTag = "suspicious"
)

var EventTags = []EventTag{TagScanner, TagBruteforce, TagFalsePositive, TagWatchlist, TagSuspicious}

func (t EventTag) IsValid() bool {
	for _, known := range EventTags {
		if t == known {
			return true
		}
	}
	return false
}

const MaxEventNotesLength = 5000

// HoneypotEvent is one recorded attacker interaction. TenantID always comes
// from the authenticating token.
type HoneypotEvent struct {
	ID               uuid.UUID         `json:"id"`
	TenantID         uuid.UUID         `json:"tenant_id"`
	Timestamp        time.Time         `json:"timestamp"`
	SourceIP         string            `json:"source_ip"`
	DeclaredSourceIP null.String       `json:"declared_source_ip"`
	Service          ServiceType       `json:"service"`
	Path             string            `json:"path"`
	Method           string            `json:"method"`
	UserAgent        string            `json:"user_agent"`
	Username         null.String       `json:"username"`
	Headers          map[string]string `json:"headers"`
	Body             string            `json:"body"`
	PayloadSize      int               `json:"payload_size"`
	RiskScore        int               `json:"risk_score"`
	Country          null.String       `json:"country"`
	ASN              null.String       `json:"asn"`
	Org              null.String       `json:"org"`
	Tags             []EventTag        `json:"tags"`
	Notes            null.String       `json:"notes"`
	CreatedAt        time.Time         `json:"created_at"`
}

func (e *HoneypotEvent) RiskLevel() RiskLevel {
	return LevelForScore(e.RiskScore)
}

type EventFilter struct {
	TenantID     *uuid.UUID
	Service      *ServiceType
	MinRiskScore *int
	Since        *time.Time
}

type EventStats struct {
	Total     int64                 `json:"total"`
	ByService map[ServiceType]int64 `json:"by_service"`
	ByLevel   map[RiskLevel]int64   `json:"by_risk_level"`
}

type SetEventTagsInput struct {
	Tags []EventTag `json:"tags" binding:"required"`
}

type SetEventNotesInput struct {
	Notes string `json:"notes" binding:"max=5000"`
}
