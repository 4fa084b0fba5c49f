package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/interfaces/http/response"
	"neypot.backend/internal/usecases"
	"neypot.backend/pkg/logger"
)

const (
	// Version is reported by the ingest and health endpoints.
	Version = "2.0.0"

	TokenHeader            = "X-API-TOKEN"
	DefaultMaxRequestBytes = 1 << 20
	// maxDrainBytes bounds how much of an oversized body is read and
	// discarded to measure its size. Anything beyond it is not counted.
	maxDrainBytes = 64 << 20

	ingestAllowHeaders = "authorization, x-client-info, apikey, content-type, x-api-token"
)

type ingestService interface {
	Ingest(ctx context.Context, rawToken string, req usecases.RawRequest) (*usecases.IngestResult, error)
}

// IngestHandler accepts honeypot interactions from sensors.
type IngestHandler struct {
	service         ingestService
	maxRequestBytes int64
}

func NewIngestHandler(service *usecases.IngestUsecase, maxRequestBytes int64) *IngestHandler {
	if maxRequestBytes <= 0 {
		maxRequestBytes = DefaultMaxRequestBytes
	}
	return &IngestHandler{service: service, maxRequestBytes: maxRequestBytes}
}

type ingestResponse struct {
	Success   bool                 `json:"success"`
	EventID   string               `json:"event_id"`
	RiskScore int                  `json:"risk_score"`
	Service   entities.ServiceType `json:"service"`
	Version   string               `json:"version"`
}

// Ingest handles any method on the ingest routes.
func (h *IngestHandler) Ingest(c *gin.Context) {
	setIngestCORSHeaders(c)
	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error(c.Request.Context(), "Ingest panic", zap.Any("panic", r))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": domainerrors.MsgInternal})
		}
	}()

	body, size, err := h.readBody(c)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to read ingest body", zap.Error(err))
		response.ErrorMessage(c, domainerrors.InternalError(err))
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), c.GetHeader(TokenHeader), usecases.RawRequest{
		Method:        c.Request.Method,
		URI:           c.Request.URL.RequestURI(),
		Headers:       c.Request.Header,
		Body:          body,
		ContentLength: max(c.Request.ContentLength, size),
		RemoteAddr:    c.Request.RemoteAddr,
	})
	if err != nil {
		response.ErrorMessage(c, err)
		return
	}

	response.Success(c, http.StatusOK, ingestResponse{
		Success:   true,
		EventID:   result.EventID.String(),
		RiskScore: result.RiskScore,
		Service:   result.Service,
		Version:   Version,
	})
}

// readBody keeps at most maxRequestBytes and reports the size of the whole
// body. The remainder is drained and counted, which is the only size a
// chunked request has.
func (h *IngestHandler) readBody(c *gin.Context) (string, int64, error) {
	if c.Request.Body == nil {
		return "", 0, nil
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxRequestBytes))
	if err != nil {
		return "", 0, err
	}
	size := int64(len(data))
	if size < h.maxRequestBytes {
		return string(data), size, nil
	}

	rest, err := io.Copy(io.Discard, io.LimitReader(c.Request.Body, maxDrainBytes))
	if err != nil {
		logger.Warn(c.Request.Context(), "Ingest body ended early while draining", zap.Error(err))
	}
	return string(data), size + rest, nil
}

func setIngestCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", ingestAllowHeaders)
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
}
