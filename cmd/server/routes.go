package main

import (
	"github.com/gin-gonic/gin"
	"neypot.backend/internal/config"
	"neypot.backend/internal/interfaces/http/handlers"
	"neypot.backend/internal/interfaces/http/middleware"
	"neypot.backend/pkg/jwt"
	"neypot.backend/pkg/metrics"
)

// Ingest routes answer CORS themselves with the sensor-facing headers.
var ingestPaths = []string{"/ingest", "/api/v1/ingest", "/test/connection"}

type routeDeps struct {
	ingestHandler   *handlers.IngestHandler
	tenantHandler   *handlers.TenantHandler
	apiTokenHandler *handlers.ApiTokenHandler
	eventHandler    *handlers.EventHandler
	auditLogHandler *handlers.AuditLogHandler
	healthHandler   *handlers.HealthHandler
	jwtService      *jwt.JWTService
	// rateLimit is optional and applies to the operator API only.
	rateLimit gin.HandlerFunc
}

func newRouter(cfg *config.Config, d routeDeps) (*gin.Engine, error) {
	if cfg.RateLimit.Enabled && d.rateLimit == nil {
		limit, err := middleware.RateLimitMiddleware(cfg.RateLimit.Rate)
		if err != nil {
			return nil, err
		}
		d.rateLimit = limit
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r, d.healthHandler)
	registerIngestRoutes(r, d.ingestHandler)
	registerAPIV1Routes(r, d)
	return r, nil
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(middleware.CORSMiddleware(ingestPaths...))
}

func registerHealthRoute(r *gin.Engine, h *handlers.HealthHandler) {
	if h == nil {
		h = handlers.NewHealthHandler()
	}
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func registerIngestRoutes(r *gin.Engine, h *handlers.IngestHandler) {
	for _, path := range ingestPaths {
		r.Any(path, h.Ingest)
	}
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(d.jwtService))
	if d.rateLimit != nil {
		v1.Use(d.rateLimit)
	}
	{
		tenants := v1.Group("/tenants")
		{
			tenants.POST("", middleware.IdempotencyMiddleware(), d.tenantHandler.CreateTenant)
			tenants.GET("", d.tenantHandler.ListTenants)
			tenants.GET("/:id", d.tenantHandler.GetTenant)
			tenants.PATCH("/:id", d.tenantHandler.UpdateTenant)
			tenants.DELETE("/:id", middleware.RequireAdmin(), d.tenantHandler.DeleteTenant)
		}

		tokens := v1.Group("/tokens")
		{
			// Issuance is never replayed: the response holds the raw token.
			tokens.POST("", d.apiTokenHandler.CreateApiToken)
			tokens.GET("", d.apiTokenHandler.ListApiTokens)
			tokens.POST("/:id/revoke", d.apiTokenHandler.RevokeApiToken)
			tokens.POST("/:id/rotate", d.apiTokenHandler.RotateApiToken)
			tokens.DELETE("/:id", middleware.RequireAdmin(), d.apiTokenHandler.DeleteApiToken)
		}

		events := v1.Group("/events")
		{
			events.GET("", d.eventHandler.ListEvents)
			events.GET("/stats", d.eventHandler.GetEventStats)
			events.GET("/:id", d.eventHandler.GetEvent)
			events.PUT("/:id/tags", d.eventHandler.SetEventTags)
			events.PUT("/:id/notes", d.eventHandler.SetEventNotes)
		}

		v1.GET("/audit-logs", d.auditLogHandler.ListAuditLogs)
	}
}
