package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/usecases"
)

type ingestServiceStub struct {
	result   *usecases.IngestResult
	err      error
	panicMsg string

	gotToken string
	gotReq   usecases.RawRequest
	calls    int
}

func (s *ingestServiceStub) Ingest(_ context.Context, rawToken string, req usecases.RawRequest) (*usecases.IngestResult, error) {
	s.calls++
	s.gotToken = rawToken
	s.gotReq = req
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.result, s.err
}

func newIngestRouter(stub *ingestServiceStub, maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &IngestHandler{service: stub, maxRequestBytes: maxBytes}
	r := gin.New()
	r.Any("/ingest", h.Ingest)
	return r
}

func TestIngestHandler_Preflight(t *testing.T) {
	stub := &ingestServiceStub{}
	r := newIngestRouter(stub, DefaultMaxRequestBytes)

	req := httptest.NewRequest(http.MethodOptions, "/ingest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, ingestAllowHeaders, w.Header().Get("Access-Control-Allow-Headers"))
	assert.Zero(t, stub.calls)
}

func TestIngestHandler_Success(t *testing.T) {
	eventID := uuid.New()
	stub := &ingestServiceStub{result: &usecases.IngestResult{
		EventID:   eventID,
		RiskScore: 70,
		Service:   entities.ServiceSSH,
	}}
	r := newIngestRouter(stub, DefaultMaxRequestBytes)

	body := `{"service":"ssh","body":"root login failed password"}`
	req := httptest.NewRequest(http.MethodPost, "/ingest?scan=1", strings.NewReader(body))
	req.Header.Set(TokenHeader, "npt_abc")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"event_id":"`+eventID.String()+`","risk_score":70,"service":"ssh","version":"2.0.0"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, "npt_abc", stub.gotToken)
	assert.Equal(t, http.MethodPost, stub.gotReq.Method)
	assert.Equal(t, "/ingest?scan=1", stub.gotReq.URI)
	assert.Equal(t, body, stub.gotReq.Body)
	assert.Equal(t, int64(len(body)), stub.gotReq.ContentLength)
	assert.Equal(t, "203.0.113.9", stub.gotReq.Headers.Get("X-Forwarded-For"))
}

func TestIngestHandler_BodyCappedAtReadTime(t *testing.T) {
	stub := &ingestServiceStub{result: &usecases.IngestResult{EventID: uuid.New(), Service: entities.ServiceHTTP}}
	r := newIngestRouter(stub, 8)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(strings.Repeat("a", 32)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "aaaaaaaa", stub.gotReq.Body)
	assert.Equal(t, int64(32), stub.gotReq.ContentLength)
}

func TestIngestHandler_ChunkedBodyCountsFullSize(t *testing.T) {
	stub := &ingestServiceStub{result: &usecases.IngestResult{EventID: uuid.New(), Service: entities.ServiceHTTP}}
	r := newIngestRouter(stub, 8)

	req := httptest.NewRequest(http.MethodPost, "/ingest", io.MultiReader(strings.NewReader(strings.Repeat("a", 20)), strings.NewReader(strings.Repeat("b", 12))))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "aaaaaaaa", stub.gotReq.Body)
	assert.Equal(t, int64(32), stub.gotReq.ContentLength)
}

func TestIngestHandler_ChunkedBodyUnderLimit(t *testing.T) {
	stub := &ingestServiceStub{result: &usecases.IngestResult{EventID: uuid.New(), Service: entities.ServiceHTTP}}
	r := newIngestRouter(stub, DefaultMaxRequestBytes)

	req := httptest.NewRequest(http.MethodPost, "/ingest", io.MultiReader(strings.NewReader("abc")))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", stub.gotReq.Body)
	assert.Equal(t, int64(3), stub.gotReq.ContentLength)
}

func TestIngestHandler_Errors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"missing token", domainerrors.MissingCredential(), http.StatusUnauthorized, `{"error":"X-API-TOKEN header required"}`},
		{"unknown token", domainerrors.InvalidCredential(), http.StatusUnauthorized, `{"error":"Invalid API token"}`},
		{"revoked", domainerrors.RevokedCredential(), http.StatusUnauthorized, `{"error":"Token has been revoked"}`},
		{"grace lapsed", domainerrors.ExpiredCredential(domainerrors.MsgGraceLapsed), http.StatusUnauthorized, `{"error":"Token expired (grace period ended)"}`},
		{"insert failure", domainerrors.InsertFailure(errors.New("db down")), http.StatusInternalServerError, `{"error":"Failed to insert event"}`},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newIngestRouter(&ingestServiceStub{err: tc.err}, DefaultMaxRequestBytes)
			req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader("{}"))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestIngestHandler_RecoversPanic(t *testing.T) {
	r := newIngestRouter(&ingestServiceStub{panicMsg: "nil map"}, DefaultMaxRequestBytes)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestNewIngestHandler_DefaultLimit(t *testing.T) {
	h := NewIngestHandler(nil, 0)
	assert.Equal(t, int64(DefaultMaxRequestBytes), h.maxRequestBytes)
}
