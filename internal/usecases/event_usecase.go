package usecases

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/domain/repositories"
	"neypot.backend/pkg/utils"
)

const eventNotFound = "event not found"

// EventQuery is the operator-facing list filter.
type EventQuery struct {
	TenantID     *uuid.UUID
	Service      string
	MinRiskScore *int
	Since        *time.Time
}

type EventUsecase struct {
	eventRepo repositories.EventRepository
}

func NewEventUsecase(eventRepo repositories.EventRepository) *EventUsecase {
	return &EventUsecase{eventRepo: eventRepo}
}

func (u *EventUsecase) List(ctx context.Context, query EventQuery, page utils.Page) ([]*entities.HoneypotEvent, utils.PageMeta, error) {
	filter := entities.EventFilter{
		TenantID: query.TenantID,
		Since:    query.Since,
	}
	if query.Service != "" {
		service := entities.ServiceType(query.Service)
		if !service.IsSupported() {
			return nil, utils.PageMeta{}, domainerrors.BadRequest("unknown service")
		}
		filter.Service = &service
	}
	if query.MinRiskScore != nil {
		if *query.MinRiskScore < entities.MinRiskScore || *query.MinRiskScore > entities.MaxRiskScore {
			return nil, utils.PageMeta{}, domainerrors.BadRequest("min_risk must be between 0 and 100")
		}
		filter.MinRiskScore = query.MinRiskScore
	}

	events, total, err := u.eventRepo.List(ctx, filter, page)
	if err != nil {
		return nil, utils.PageMeta{}, domainerrors.InternalError(err)
	}
	return events, page.Meta(total), nil
}

func (u *EventUsecase) Get(ctx context.Context, id uuid.UUID) (*entities.HoneypotEvent, error) {
	event, err := u.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, eventNotFound)
	}
	return event, nil
}

// SetTags replaces the tag set. Unknown tags are rejected and duplicates
// collapse, keeping first-seen order.
func (u *EventUsecase) SetTags(ctx context.Context, id uuid.UUID, tags []entities.EventTag) (*entities.HoneypotEvent, error) {
	seen := make(map[entities.EventTag]bool, len(tags))
	unique := make([]entities.EventTag, 0, len(tags))
	for _, tag := range tags {
		if !tag.IsValid() {
			return nil, domainerrors.BadRequest("unknown tag: " + string(tag))
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		unique = append(unique, tag)
	}

	if err := u.eventRepo.SetTags(ctx, id, unique); err != nil {
		return nil, repoError(err, eventNotFound)
	}
	return u.Get(ctx, id)
}

func (u *EventUsecase) SetNotes(ctx context.Context, id uuid.UUID, notes string) (*entities.HoneypotEvent, error) {
	if utf8.RuneCountInString(notes) > entities.MaxEventNotesLength {
		return nil, domainerrors.BadRequest("notes must be at most 5000 characters")
	}
	if err := u.eventRepo.SetNotes(ctx, id, notes); err != nil {
		return nil, repoError(err, eventNotFound)
	}
	return u.Get(ctx, id)
}

func (u *EventUsecase) Stats(ctx context.Context, tenantID *uuid.UUID) (*entities.EventStats, error) {
	stats, err := u.eventRepo.Stats(ctx, tenantID)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	return stats, nil
}
