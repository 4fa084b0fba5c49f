package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/interfaces/http/response"
	"neypot.backend/internal/usecases"
	"neypot.backend/pkg/utils"
)

type eventService interface {
	List(ctx context.Context, query usecases.EventQuery, page utils.Page) ([]*entities.HoneypotEvent, utils.PageMeta, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.HoneypotEvent, error)
	SetTags(ctx context.Context, id uuid.UUID, tags []entities.EventTag) (*entities.HoneypotEvent, error)
	SetNotes(ctx context.Context, id uuid.UUID, notes string) (*entities.HoneypotEvent, error)
	Stats(ctx context.Context, tenantID *uuid.UUID) (*entities.EventStats, error)
}

type EventHandler struct {
	service eventService
}

func NewEventHandler(service *usecases.EventUsecase) *EventHandler {
	return &EventHandler{service: service}
}

// ListEvents lists events newest first
// GET /api/v1/events?tenant_id=&service=&min_risk=&since=&page=&limit=
func (h *EventHandler) ListEvents(c *gin.Context) {
	query, err := eventQueryFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := parsePage(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	events, meta, err := h.service.List(c.Request.Context(), query, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, listResponse{Items: events, Meta: meta})
}

// GetEventStats
// GET /api/v1/events/stats?tenant_id=
func (h *EventHandler) GetEventStats(c *gin.Context) {
	tenantID, err := parseTenantQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// GetEvent
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	event, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"event": event})
}

// SetEventTags replaces the tag set
// PUT /api/v1/events/:id/tags
func (h *EventHandler) SetEventTags(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input entities.SetEventTagsInput
	if err := bindJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	event, err := h.service.SetTags(c.Request.Context(), id, input.Tags)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"event": event})
}

// SetEventNotes
// PUT /api/v1/events/:id/notes
func (h *EventHandler) SetEventNotes(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input entities.SetEventNotesInput
	if err := bindJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	event, err := h.service.SetNotes(c.Request.Context(), id, input.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"event": event})
}

func eventQueryFrom(c *gin.Context) (usecases.EventQuery, error) {
	var query usecases.EventQuery

	tenantID, err := parseTenantQuery(c)
	if err != nil {
		return query, err
	}
	query.TenantID = tenantID
	query.Service = c.Query("service")

	if raw := c.Query("min_risk"); raw != "" {
		minRisk, err := strconv.Atoi(raw)
		if err != nil {
			return query, domainerrors.BadRequest("invalid min_risk")
		}
		query.MinRiskScore = &minRisk
	}

	since, err := parseSince(c.Query("since"))
	if err != nil {
		return query, err
	}
	query.Since = since
	return query, nil
}
