package usecases

import (
	"errors"

	domainerrors "neypot.backend/internal/domain/errors"
)

// repoError maps repository errors onto AppErrors for the HTTP layer.
func repoError(err error, notFoundMessage string) error {
	if errors.Is(err, domainerrors.ErrNotFound) {
		return domainerrors.NotFound(notFoundMessage)
	}
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return domainerrors.InternalError(err)
}
