package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"neypot.backend/internal/domain/entities"
	"neypot.backend/pkg/utils"
)

func TestAuditLogRepository_CreateAndList(t *testing.T) {
	db := newTestDB(t)
	createAuditLogTable(t, db)
	repo := NewAuditLogRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Minute)
	logs := []*entities.AuditLog{
		{Action: entities.AuditTokenCreated, UserID: &userID, UserEmail: "ops@example.com", Details: null.StringFrom("token a"), CreatedAt: base},
		{Action: entities.AuditTokenRevoked, UserEmail: "ops@example.com", IPAddress: null.StringFrom("10.0.0.1"), CreatedAt: base.Add(time.Second)},
		{Action: entities.AuditTokenCreated, UserEmail: "system", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, l := range logs {
		require.NoError(t, repo.Create(ctx, l))
		require.NotEqual(t, uuid.Nil, l.ID)
	}

	items, total, err := repo.List(ctx, entities.AuditLogFilter{}, utils.NewPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "system", items[0].UserEmail, "newest first")

	action := entities.AuditTokenCreated
	items, total, err = repo.List(ctx, entities.AuditLogFilter{Action: &action}, utils.NewPage(1, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	require.NotNil(t, items[1].UserID)
	assert.Equal(t, userID, *items[1].UserID)
	assert.Equal(t, "token a", items[1].Details.String)
}
