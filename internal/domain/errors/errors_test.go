package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Constructors(t *testing.T) {
	err := NewAppError(http.StatusBadRequest, CodeBadRequest, "bad", ErrBadRequest)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, CodeBadRequest, err.Code)
	assert.Equal(t, "bad", err.Message)
	assert.Equal(t, ErrBadRequest.Error(), err.Error())

	notFound := NotFound("missing")
	assert.Equal(t, http.StatusNotFound, notFound.Status)
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.ErrorIs(t, notFound, ErrNotFound)

	conflict := Conflict("exists")
	assert.Equal(t, http.StatusConflict, conflict.Status)
	assert.Equal(t, CodeConflict, conflict.Code)

	internal := InternalError(stderrors.New("db down"))
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.Equal(t, CodeInternalError, internal.Code)
	assert.Equal(t, MsgInternal, internal.Message)

	custom := NewError("custom", ErrForbidden)
	assert.Equal(t, ErrForbidden.Error(), custom.Error())

	badReq := BadRequest("bad request")
	assert.Equal(t, http.StatusBadRequest, badReq.Status)
	assert.ErrorIs(t, badReq, ErrInvalidInput)

	unauth := Unauthorized("unauthorized")
	assert.Equal(t, http.StatusUnauthorized, unauth.Status)
	assert.Equal(t, CodeUnauthorized, unauth.Code)

	forbidden := Forbidden("nope")
	assert.Equal(t, http.StatusForbidden, forbidden.Status)
}

func TestAppError_MessageWithoutWrapped(t *testing.T) {
	err := &AppError{Message: "plain"}
	assert.Equal(t, "plain", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestCredentialErrors(t *testing.T) {
	cases := []struct {
		err      *AppError
		sentinel error
		code     string
		msg      string
	}{
		{MissingCredential(), ErrMissingCredential, CodeMissingCredential, "X-API-TOKEN header required"},
		{InvalidCredential(), ErrInvalidCredential, CodeInvalidCredential, "Invalid API token"},
		{RevokedCredential(), ErrRevokedCredential, CodeRevokedCredential, "Token has been revoked"},
		{ExpiredCredential(MsgGraceLapsed), ErrExpiredCredential, CodeExpiredCredential, "Token expired (grace period ended)"},
		{ExpiredCredential(MsgExpiredCredential), ErrExpiredCredential, CodeExpiredCredential, "Token expired"},
	}
	for _, tc := range cases {
		t.Run(tc.code+"/"+tc.msg, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, tc.err.Status)
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.msg, tc.err.Message)
			assert.ErrorIs(t, tc.err, tc.sentinel)
		})
	}
}

func TestStorageFailures(t *testing.T) {
	cause := stderrors.New("connection reset")

	lookup := StorageFailure(cause)
	assert.Equal(t, http.StatusInternalServerError, lookup.Status)
	assert.Equal(t, MsgInternal, lookup.Message)
	assert.ErrorIs(t, lookup, ErrStorageFailure)
	assert.ErrorIs(t, lookup, cause)

	insert := InsertFailure(cause)
	assert.Equal(t, MsgInsertFailed, insert.Message)
	assert.ErrorIs(t, insert, ErrStorageFailure)

	var appErr *AppError
	wrapped := fmt.Errorf("ingest: %w", insert)
	assert.True(t, stderrors.As(wrapped, &appErr))
	assert.Equal(t, MsgInsertFailed, appErr.Message)
}
