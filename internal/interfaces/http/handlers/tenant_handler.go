package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"neypot.backend/internal/domain/entities"
	"neypot.backend/internal/interfaces/http/middleware"
	"neypot.backend/internal/interfaces/http/response"
	"neypot.backend/internal/usecases"
)

type tenantService interface {
	Create(ctx context.Context, actor entities.Actor, input *entities.CreateTenantInput) (*entities.Tenant, error)
	List(ctx context.Context) ([]*entities.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.Tenant, error)
	Update(ctx context.Context, actor entities.Actor, id uuid.UUID, input *entities.UpdateTenantInput) (*entities.Tenant, error)
	Delete(ctx context.Context, actor entities.Actor, id uuid.UUID) error
}

type TenantHandler struct {
	service tenantService
}

func NewTenantHandler(service *usecases.TenantUsecase) *TenantHandler {
	return &TenantHandler{service: service}
}

// CreateTenant creates a tenant
// POST /api/v1/tenants
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var input entities.CreateTenantInput
	if err := bindJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	tenant, err := h.service.Create(c.Request.Context(), middleware.GetActor(c), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"tenant": tenant})
}

// ListTenants lists all tenants
// GET /api/v1/tenants
func (h *TenantHandler) ListTenants(c *gin.Context) {
	tenants, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": tenants})
}

// GetTenant gets a tenant by id
// GET /api/v1/tenants/:id
func (h *TenantHandler) GetTenant(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	tenant, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tenant": tenant})
}

// UpdateTenant applies a partial update
// PATCH /api/v1/tenants/:id
func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input entities.UpdateTenantInput
	if err := bindJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	tenant, err := h.service.Update(c.Request.Context(), middleware.GetActor(c), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tenant": tenant})
}

// DeleteTenant removes a tenant with its tokens and events
// DELETE /api/v1/tenants/:id
func (h *TenantHandler) DeleteTenant(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Tenant deleted successfully"})
}
