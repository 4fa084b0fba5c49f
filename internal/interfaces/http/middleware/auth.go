package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"neypot.backend/internal/domain/entities"
	"neypot.backend/pkg/jwt"
	"neypot.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "

	OperatorIDKey    = "operatorId"
	OperatorEmailKey = "operatorEmail"
	OperatorRoleKey  = "operatorRole"

	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// OperatorRoles are the roles accepted on the operator API.
var OperatorRoles = []string{RoleAdmin, RoleOperator}

// tokenValidator is satisfied by *jwt.JWTService.
type tokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

// AuthMiddleware authenticates operators by bearer JWT.
func AuthMiddleware(jwtService tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			logger.Warn(ctx, "Operator auth failed", zap.String("path", c.Request.URL.Path), zap.String("reason", "missing header"))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			logger.Warn(ctx, "Operator auth failed", zap.String("path", c.Request.URL.Path), zap.String("reason", "bad format"))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			logger.Warn(ctx, "Operator auth failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, jwt.ErrExpiredToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token has expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		if !hasRole(claims.Role, OperatorRoles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		c.Set(OperatorIDKey, claims.OperatorID)
		c.Set(OperatorEmailKey, claims.Email)
		c.Set(OperatorRoleKey, claims.Role)

		c.Next()
	}
}

// GetOperatorID gets the operator ID from context
func GetOperatorID(c *gin.Context) (uuid.UUID, bool) {
	id, exists := c.Get(OperatorIDKey)
	if !exists {
		return uuid.Nil, false
	}
	operatorID, ok := id.(uuid.UUID)
	return operatorID, ok
}

// GetOperatorRole gets the operator role from context
func GetOperatorRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(OperatorRoleKey)
	if !exists {
		return "", false
	}
	s, ok := role.(string)
	return s, ok
}

// GetActor describes the calling operator for audit records.
func GetActor(c *gin.Context) entities.Actor {
	actor := entities.Actor{
		Email: c.GetString(OperatorEmailKey),
		IP:    c.ClientIP(),
	}
	if id, ok := GetOperatorID(c); ok && id != uuid.Nil {
		actor.UserID = &id
	}
	return actor
}

// RequireRole creates a middleware that requires a specific role
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetOperatorRole(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Operator role not found",
			})
			return
		}
		if !hasRole(role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin creates a middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// operatorScope keys per-operator state such as idempotency records.
func operatorScope(c *gin.Context) string {
	if id, ok := GetOperatorID(c); ok {
		return id.String()
	}
	return "anonymous"
}
