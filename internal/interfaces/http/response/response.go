package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	domainerrors "neypot.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response
func Error(c *gin.Context, err error) {
	appErr := AsAppError(err)
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message,
	})
}

// ErrorMessage sends the bare {"error": message} body used by the ingest route.
func ErrorMessage(c *gin.Context, err error) {
	appErr := AsAppError(err)
	c.JSON(appErr.Status, gin.H{"error": appErr.Message})
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}

// AsAppError resolves err to an AppError. Bare sentinels keep their status;
// anything unknown becomes a generic 500.
func AsAppError(err error) *domainerrors.AppError {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		return domainerrors.NotFound("resource not found")
	case errors.Is(err, domainerrors.ErrInvalidInput), errors.Is(err, domainerrors.ErrBadRequest):
		return domainerrors.BadRequest("invalid request")
	case errors.Is(err, domainerrors.ErrUnauthorized):
		return domainerrors.Unauthorized("unauthorized")
	case errors.Is(err, domainerrors.ErrForbidden):
		return domainerrors.Forbidden("forbidden")
	case errors.Is(err, domainerrors.ErrConflict), errors.Is(err, domainerrors.ErrAlreadyExists):
		return domainerrors.Conflict("conflict")
	default:
		return domainerrors.InternalError(err)
	}
}
