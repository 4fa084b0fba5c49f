package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")

	// Ingest credential taxonomy
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrRevokedCredential = errors.New("revoked credential")
	ErrExpiredCredential = errors.New("expired credential")
	ErrStorageFailure    = errors.New("storage failure")
)

// Machine-readable error codes
const (
	CodeNotFound          = "ERR_NOT_FOUND"
	CodeBadRequest        = "ERR_BAD_REQUEST"
	CodeUnauthorized      = "ERR_UNAUTHORIZED"
	CodeForbidden         = "ERR_FORBIDDEN"
	CodeConflict          = "ERR_CONFLICT"
	CodeInternalError     = "ERR_INTERNAL"
	CodeMissingCredential = "ERR_MISSING_CREDENTIAL"
	CodeInvalidCredential = "ERR_INVALID_CREDENTIAL"
	CodeRevokedCredential = "ERR_REVOKED_CREDENTIAL"
	CodeExpiredCredential = "ERR_EXPIRED_CREDENTIAL"
)

// Messages returned by the ingest endpoint
const (
	MsgMissingCredential = "X-API-TOKEN header required"
	MsgInvalidCredential = "Invalid API token"
	MsgRevokedCredential = "Token has been revoked"
	MsgGraceLapsed       = "Token expired (grace period ended)"
	MsgExpiredCredential = "Token expired"
	MsgInsertFailed      = "Failed to insert event"
	MsgInternal          = "Internal server error"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrConflict)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, MsgInternal, err)
}

func MissingCredential() *AppError {
	return NewAppError(http.StatusUnauthorized, CodeMissingCredential, MsgMissingCredential, ErrMissingCredential)
}

func InvalidCredential() *AppError {
	return NewAppError(http.StatusUnauthorized, CodeInvalidCredential, MsgInvalidCredential, ErrInvalidCredential)
}

func RevokedCredential() *AppError {
	return NewAppError(http.StatusUnauthorized, CodeRevokedCredential, MsgRevokedCredential, ErrRevokedCredential)
}

// ExpiredCredential covers both hard expiry and a lapsed grace window; the
// message tells them apart.
func ExpiredCredential(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeExpiredCredential, message, ErrExpiredCredential)
}

// StorageFailure hides the store error behind the generic 500 message.
func StorageFailure(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, MsgInternal, errors.Join(ErrStorageFailure, err))
}

func InsertFailure(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, MsgInsertFailed, errors.Join(ErrStorageFailure, err))
}

// NewError creates a new error with a custom message wrapping an existing error
func NewError(message string, err error) error {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: message,
		Err:     err,
	}
}
