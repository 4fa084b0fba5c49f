package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApiToken_State(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name  string
		token ApiToken
		want  TokenState
	}{
		{"active", ApiToken{IsActive: true}, TokenStateActive},
		{"active with future expiry", ApiToken{IsActive: true, ExpiresAt: &future}, TokenStateActive},
		{"active expired", ApiToken{IsActive: true, ExpiresAt: &past}, TokenStateExpired},
		{"revoked", ApiToken{IsActive: false}, TokenStateRevoked},
		{"revoked ignores expiry", ApiToken{IsActive: false, ExpiresAt: &past}, TokenStateRevoked},
		{"grace window open", ApiToken{IsActive: false, GracePeriodUntil: &future}, TokenStateGrace},
		{"grace window lapsed", ApiToken{IsActive: false, GracePeriodUntil: &past}, TokenStateGraceLapsed},
		{"expiry wins over grace", ApiToken{IsActive: false, GracePeriodUntil: &future, ExpiresAt: &past}, TokenStateExpired},
		{"active rotating", ApiToken{IsActive: true, GracePeriodUntil: &past}, TokenStateActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.token.State(now))
		})
	}
}

func TestApiToken_StateBoundaryIsStrict(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := ApiToken{IsActive: true, ExpiresAt: &now}
	assert.Equal(t, TokenStateActive, tok.State(now))
	assert.True(t, tok.Usable(now))
	assert.False(t, tok.Usable(now.Add(time.Nanosecond)))
}

func TestAuthResult_Authenticated(t *testing.T) {
	var nilResult *AuthResult
	assert.False(t, nilResult.Authenticated())
	assert.False(t, (&AuthResult{Outcome: AuthRejectedRevoked}).Authenticated())
	assert.True(t, (&AuthResult{Outcome: AuthAuthenticated}).Authenticated())
}

func TestServiceType(t *testing.T) {
	assert.Equal(t, "ssh", ServiceSSH.Key())
	assert.Equal(t, "test", ServiceTest.Key())
	assert.Equal(t, "custom", ServiceType("custom").Key())
	assert.True(t, ServiceMySQL.IsSupported())
	assert.False(t, ServiceType("HTTP-honeypot").IsSupported())
	assert.Len(t, SupportedServices, 9)
}

func TestLevelForScore(t *testing.T) {
	cases := map[int]RiskLevel{
		0: RiskInfo, 19: RiskInfo, 20: RiskLow, 39: RiskLow, 40: RiskMedium,
		59: RiskMedium, 60: RiskHigh, 79: RiskHigh, 80: RiskCritical, 100: RiskCritical,
	}
	for score, want := range cases {
		assert.Equal(t, want, LevelForScore(score), "score %d", score)
	}
	for _, level := range RiskLevels {
		assert.Equal(t, level, LevelForScore(level.MinScore()))
	}
}

func TestEventTagAndAuditActionValidation(t *testing.T) {
	assert.True(t, TagWatchlist.IsValid())
	assert.False(t, EventTag("malware").IsValid())
	assert.True(t, AuditTokenRotated.IsValid())
	assert.False(t, AuditAction("TOKEN_EXPLODED").IsValid())

	ev := HoneypotEvent{RiskScore: 65}
	assert.Equal(t, RiskHigh, ev.RiskLevel())
}
