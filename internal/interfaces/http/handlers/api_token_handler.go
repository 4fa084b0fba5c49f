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

type apiTokenService interface {
	Create(ctx context.Context, actor entities.Actor, input *entities.CreateApiTokenInput) (*entities.IssuedApiToken, error)
	List(ctx context.Context, tenantID *uuid.UUID) ([]*entities.ApiToken, error)
	Revoke(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.ApiToken, error)
	Rotate(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.RotateApiTokenResult, error)
	Delete(ctx context.Context, actor entities.Actor, id uuid.UUID) error
}

type ApiTokenHandler struct {
	service apiTokenService
}

func NewApiTokenHandler(service *usecases.ApiTokenUsecase) *ApiTokenHandler {
	return &ApiTokenHandler{service: service}
}

// CreateApiToken issues a token. The raw value is only in this response.
// POST /api/v1/tokens
func (h *ApiTokenHandler) CreateApiToken(c *gin.Context) {
	var input entities.CreateApiTokenInput
	if err := bindJSON(c, &input); err != nil {
		response.Error(c, err)
		return
	}

	issued, err := h.service.Create(c.Request.Context(), middleware.GetActor(c), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, issued)
}

// ListApiTokens lists tokens, optionally for one tenant
// GET /api/v1/tokens?tenant_id=
func (h *ApiTokenHandler) ListApiTokens(c *gin.Context) {
	tenantID, err := parseTenantQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	tokens, err := h.service.List(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": tokens})
}

// RevokeApiToken
// POST /api/v1/tokens/:id/revoke
func (h *ApiTokenHandler) RevokeApiToken(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.service.Revoke(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"api_token": token})
}

// RotateApiToken opens a grace window on the old token and issues a replacement
// POST /api/v1/tokens/:id/rotate
func (h *ApiTokenHandler) RotateApiToken(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Rotate(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// DeleteApiToken
// DELETE /api/v1/tokens/:id
func (h *ApiTokenHandler) DeleteApiToken(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "API token deleted successfully"})
}
