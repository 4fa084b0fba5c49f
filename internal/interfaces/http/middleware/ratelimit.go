package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
	"neypot.backend/pkg/logger"
)

const CodeRateLimited = "ERR_RATE_LIMITED"

// RateLimitMiddleware limits requests per client IP with an in-process store.
// rate uses the limiter format, e.g. "100-M".
func RateLimitMiddleware(rate string) (gin.HandlerFunc, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	instance := limiter.New(memory.NewStore(), parsed)
	return limitergin.NewMiddleware(instance,
		limitergin.WithLimitReachedHandler(func(c *gin.Context) {
			logger.Warn(c.Request.Context(), "Rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    CodeRateLimited,
				"message": "Too many requests",
				"error":   "Too many requests",
			})
		}),
		limitergin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.Error(c.Request.Context(), "Rate limit check failed", zap.Error(err))
			c.Next()
		}),
	), nil
}
