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
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/pkg/utils"
)

func newEvent(tenantID uuid.UUID, service entities.ServiceType, score int, at time.Time) *entities.HoneypotEvent {
	return &entities.HoneypotEvent{
		TenantID:    tenantID,
		Timestamp:   at,
		SourceIP:    "203.0.113.7",
		Service:     service,
		Path:        "/wp-admin",
		Method:      "GET",
		UserAgent:   "curl/7.68",
		Headers:     map[string]string{"Accept": "*/*"},
		Body:        "",
		PayloadSize: 0,
		RiskScore:   score,
	}
}

func TestEventRepository_InsertAndFind(t *testing.T) {
	db := newTestDB(t)
	createEventTable(t, db)
	repo := NewEventRepository(db)
	ctx := context.Background()

	ev := newEvent(uuid.New(), entities.ServiceHTTP, 50, time.Now().UTC())
	ev.Country = null.StringFrom("NL")
	ev.DeclaredSourceIP = null.StringFrom("10.9.9.9")

	id, err := repo.Insert(ctx, ev)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ev.TenantID, got.TenantID)
	assert.Equal(t, entities.ServiceHTTP, got.Service)
	assert.Equal(t, 50, got.RiskScore)
	assert.Equal(t, "*/*", got.Headers["Accept"])
	assert.Equal(t, "NL", got.Country.String)
	assert.False(t, got.ASN.Valid)
	assert.Equal(t, "10.9.9.9", got.DeclaredSourceIP.String)
	assert.Empty(t, got.Tags)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestEventRepository_DuplicatePayloadsAreDistinct(t *testing.T) {
	db := newTestDB(t)
	createEventTable(t, db)
	repo := NewEventRepository(db)
	ctx := context.Background()

	at := time.Now().UTC()
	tenantID := uuid.New()
	first, err := repo.Insert(ctx, newEvent(tenantID, entities.ServiceHTTP, 10, at))
	require.NoError(t, err)
	second, err := repo.Insert(ctx, newEvent(tenantID, entities.ServiceHTTP, 10, at))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEventRepository_ListFiltersAndPaging(t *testing.T) {
	db := newTestDB(t)
	createEventTable(t, db)
	repo := NewEventRepository(db)
	ctx := context.Background()

	tenantA, tenantB := uuid.New(), uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := repo.Insert(ctx, newEvent(tenantA, entities.ServiceSSH, 20*i, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := repo.Insert(ctx, newEvent(tenantB, entities.ServiceHTTP, 90, base))
	require.NoError(t, err)

	items, total, err := repo.List(ctx, entities.EventFilter{TenantID: &tenantA}, utils.NewPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.Equal(t, 80, items[0].RiskScore, "newest first")

	minScore := 40
	items, total, err = repo.List(ctx, entities.EventFilter{TenantID: &tenantA, MinRiskScore: &minScore}, utils.NewPage(1, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)

	service := entities.ServiceHTTP
	_, total, err = repo.List(ctx, entities.EventFilter{Service: &service}, utils.NewPage(1, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	since := base.Add(3 * time.Minute)
	_, total, err = repo.List(ctx, entities.EventFilter{TenantID: &tenantA, Since: &since}, utils.NewPage(1, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestEventRepository_TagsAndNotes(t *testing.T) {
	db := newTestDB(t)
	createEventTable(t, db)
	repo := NewEventRepository(db)
	ctx := context.Background()

	id, err := repo.Insert(ctx, newEvent(uuid.New(), entities.ServiceHTTP, 30, time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, repo.SetTags(ctx, id, []entities.EventTag{entities.TagScanner, entities.TagWatchlist}))
	require.NoError(t, repo.SetNotes(ctx, id, "seen before"))

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []entities.EventTag{entities.TagScanner, entities.TagWatchlist}, got.Tags)
	assert.Equal(t, "seen before", got.Notes.String)

	assert.ErrorIs(t, repo.SetNotes(ctx, uuid.New(), "x"), domainerrors.ErrNotFound)
	assert.ErrorIs(t, repo.SetTags(ctx, uuid.New(), nil), domainerrors.ErrNotFound)
}

func TestEventRepository_Stats(t *testing.T) {
	db := newTestDB(t)
	createEventTable(t, db)
	repo := NewEventRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	now := time.Now().UTC()
	for _, ev := range []*entities.HoneypotEvent{
		newEvent(tenantID, entities.ServiceHTTP, 95, now),
		newEvent(tenantID, entities.ServiceHTTP, 50, now),
		newEvent(tenantID, entities.ServiceSSH, 70, now),
		newEvent(tenantID, entities.ServiceSSH, 5, now),
		newEvent(uuid.New(), entities.ServiceFTP, 10, now),
	} {
		_, err := repo.Insert(ctx, ev)
		require.NoError(t, err)
	}

	stats, err := repo.Stats(ctx, &tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.ByService[entities.ServiceHTTP])
	assert.Equal(t, int64(2), stats.ByService[entities.ServiceSSH])
	assert.Zero(t, stats.ByService[entities.ServiceFTP])
	assert.Equal(t, int64(1), stats.ByLevel[entities.RiskCritical])
	assert.Equal(t, int64(1), stats.ByLevel[entities.RiskHigh])
	assert.Equal(t, int64(1), stats.ByLevel[entities.RiskMedium])
	assert.Equal(t, int64(1), stats.ByLevel[entities.RiskInfo])

	all, err := repo.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Total)
}

func TestEventRepository_Deletes(t *testing.T) {
	db := newTestDB(t)
	createEventTable(t, db)
	repo := NewEventRepository(db)
	ctx := context.Background()

	tenantA, tenantB := uuid.New(), uuid.New()
	now := time.Now().UTC()
	_, err := repo.Insert(ctx, newEvent(tenantA, entities.ServiceHTTP, 1, now.Add(-40*24*time.Hour)))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newEvent(tenantA, entities.ServiceHTTP, 1, now))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newEvent(tenantB, entities.ServiceHTTP, 1, now.Add(-40*24*time.Hour)))
	require.NoError(t, err)

	n, err := repo.DeleteOlderThan(ctx, tenantA, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.DeleteByTenant(ctx, tenantB))

	_, total, err := repo.List(ctx, entities.EventFilter{}, utils.NewPage(1, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
