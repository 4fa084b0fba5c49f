package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/infrastructure/models"
	"neypot.backend/pkg/utils"
)

const riskLevelCase = `CASE
	WHEN risk_score >= 80 THEN 'critical'
	WHEN risk_score >= 60 THEN 'high'
	WHEN risk_score >= 40 THEN 'medium'
	WHEN risk_score >= 20 THEN 'low'
	ELSE 'info' END`

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Insert stores the event and returns its generated id.
func (r *EventRepository) Insert(ctx context.Context, event *entities.HoneypotEvent) (uuid.UUID, error) {
	if event.ID == uuid.Nil {
		event.ID = utils.GenerateUUIDv7()
	}
	m, err := r.toModel(event)
	if err != nil {
		return uuid.Nil, err
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return uuid.Nil, err
	}
	event.CreatedAt = m.CreatedAt
	return m.ID, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.HoneypotEvent, error) {
	var m models.Event
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *EventRepository) List(ctx context.Context, filter entities.EventFilter, page utils.Page) ([]*entities.HoneypotEvent, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Event
	if err := r.filtered(ctx, filter).
		Order(`"timestamp" DESC`).
		Limit(page.Limit).Offset(page.Offset()).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*entities.HoneypotEvent, 0, len(ms))
	for i := range ms {
		items = append(items, r.toEntity(&ms[i]))
	}
	return items, total, nil
}

func (r *EventRepository) filtered(ctx context.Context, filter entities.EventFilter) *gorm.DB {
	query := GetDB(ctx, r.db).Model(&models.Event{})
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.Service != nil {
		query = query.Where("service = ?", string(*filter.Service))
	}
	if filter.MinRiskScore != nil {
		query = query.Where("risk_score >= ?", *filter.MinRiskScore)
	}
	if filter.Since != nil {
		query = query.Where(`"timestamp" >= ?`, *filter.Since)
	}
	return query
}

func (r *EventRepository) SetTags(ctx context.Context, id uuid.UUID, tags []entities.EventTag) error {
	values := make(pq.StringArray, 0, len(tags))
	for _, tag := range tags {
		values = append(values, string(tag))
	}
	return r.update(ctx, id, map[string]interface{}{"tags": values})
}

func (r *EventRepository) SetNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return r.update(ctx, id, map[string]interface{}{"notes": notes})
}

func (r *EventRepository) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := GetDB(ctx, r.db).
		Model(&models.Event{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

type groupCount struct {
	Bucket string
	Total  int64
}

func (r *EventRepository) Stats(ctx context.Context, tenantID *uuid.UUID) (*entities.EventStats, error) {
	filter := entities.EventFilter{TenantID: tenantID}
	stats := &entities.EventStats{
		ByService: map[entities.ServiceType]int64{},
		ByLevel:   map[entities.RiskLevel]int64{},
	}

	if err := r.filtered(ctx, filter).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	var byService []groupCount
	if err := r.filtered(ctx, filter).
		Select("service AS bucket, COUNT(*) AS total").
		Group("service").
		Scan(&byService).Error; err != nil {
		return nil, fmt.Errorf("count events by service: %w", err)
	}
	for _, row := range byService {
		stats.ByService[entities.ServiceType(row.Bucket)] = row.Total
	}

	var byLevel []groupCount
	if err := r.filtered(ctx, filter).
		Select(riskLevelCase + " AS bucket, COUNT(*) AS total").
		Group("bucket").
		Scan(&byLevel).Error; err != nil {
		return nil, fmt.Errorf("count events by risk level: %w", err)
	}
	for _, row := range byLevel {
		stats.ByLevel[entities.RiskLevel(row.Bucket)] = row.Total
	}
	return stats, nil
}

func (r *EventRepository) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&models.Event{}, "tenant_id = ?", tenantID).Error
}

func (r *EventRepository) DeleteOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error) {
	result := GetDB(ctx, r.db).Delete(&models.Event{}, `tenant_id = ? AND "timestamp" < ?`, tenantID, cutoff)
	return result.RowsAffected, result.Error
}

func (r *EventRepository) toEntity(m *models.Event) *entities.HoneypotEvent {
	headers := map[string]string{}
	if m.Headers != "" {
		_ = json.Unmarshal([]byte(m.Headers), &headers)
	}
	tags := make([]entities.EventTag, 0, len(m.Tags))
	for _, tag := range m.Tags {
		tags = append(tags, entities.EventTag(tag))
	}
	return &entities.HoneypotEvent{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Timestamp:        m.Timestamp,
		SourceIP:         m.SourceIP,
		DeclaredSourceIP: m.DeclaredSourceIP,
		Service:          entities.ServiceType(m.Service),
		Path:             m.Path,
		Method:           m.Method,
		UserAgent:        m.UserAgent,
		Username:         m.Username,
		Headers:          headers,
		Body:             m.Body,
		PayloadSize:      m.PayloadSize,
		RiskScore:        m.RiskScore,
		Country:          m.Country,
		ASN:              m.ASN,
		Org:              m.Org,
		Tags:             tags,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
	}
}

func (r *EventRepository) toModel(e *entities.HoneypotEvent) (*models.Event, error) {
	headers := e.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	encoded, err := json.Marshal(headers)
	if err != nil {
		return nil, fmt.Errorf("encode event headers: %w", err)
	}
	var tags pq.StringArray
	for _, tag := range e.Tags {
		tags = append(tags, string(tag))
	}
	return &models.Event{
		ID:               e.ID,
		TenantID:         e.TenantID,
		Timestamp:        e.Timestamp,
		SourceIP:         e.SourceIP,
		DeclaredSourceIP: e.DeclaredSourceIP,
		Service:          string(e.Service),
		Path:             e.Path,
		Method:           e.Method,
		UserAgent:        e.UserAgent,
		Username:         e.Username,
		Headers:          string(encoded),
		Body:             e.Body,
		PayloadSize:      e.PayloadSize,
		RiskScore:        e.RiskScore,
		Country:          e.Country,
		ASN:              e.ASN,
		Org:              e.Org,
		Tags:             tags,
		Notes:            e.Notes,
		CreatedAt:        e.CreatedAt,
	}, nil
}
