package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	redispkg "neypot.backend/pkg/redis"
)

func startMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() { _ = cli.Close() })
	return srv
}

func newIdempotentRouter(operatorID uuid.UUID, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(OperatorIDKey, operatorID)
		c.Next()
	})
	r.Use(IdempotencyMiddleware())
	r.POST("/tenants", handler)
	return r
}

func postWithKey(r http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/tenants", nil)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyMiddleware_NoHeaderPassthrough(t *testing.T) {
	var calls int32
	r := newIdempotentRouter(uuid.New(), func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.Status(http.StatusNoContent)
	})

	require.Equal(t, http.StatusNoContent, postWithKey(r, "").Code)
	require.Equal(t, http.StatusNoContent, postWithKey(r, "").Code)
	assert.Equal(t, int32(2), calls)
}

func TestIdempotencyMiddleware_ReplaysFirstResponse(t *testing.T) {
	startMiniRedis(t)

	var calls int32
	r := newIdempotentRouter(uuid.New(), func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	first := postWithKey(r, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(IdempotencyHitHeader))

	second := postWithKey(r, "key-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotencyHitHeader))
	assert.JSONEq(t, `{"call":1}`, second.Body.String())
	assert.Equal(t, int32(1), calls)
}

func TestIdempotencyMiddleware_ScopedPerOperator(t *testing.T) {
	startMiniRedis(t)

	var calls int32
	handler := func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.Status(http.StatusCreated)
	}

	require.Equal(t, http.StatusCreated, postWithKey(newIdempotentRouter(uuid.New(), handler), "shared").Code)
	require.Equal(t, http.StatusCreated, postWithKey(newIdempotentRouter(uuid.New(), handler), "shared").Code)
	assert.Equal(t, int32(2), calls)
}

func TestIdempotencyMiddleware_ProcessingConflict(t *testing.T) {
	srv := startMiniRedis(t)

	operatorID := uuid.New()
	require.NoError(t, srv.Set("idempotency:"+operatorID.String()+":key-1", idempotencyProcessing))

	r := newIdempotentRouter(operatorID, func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := postWithKey(r, "key-1")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_IDEMPOTENCY_CONFLICT")
}

func TestIdempotencyMiddleware_FailureIsNotCached(t *testing.T) {
	srv := startMiniRedis(t)

	operatorID := uuid.New()
	r := newIdempotentRouter(operatorID, func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
	})

	require.Equal(t, http.StatusBadRequest, postWithKey(r, "key-2").Code)
	assert.False(t, srv.Exists("idempotency:"+operatorID.String()+":key-2"))
}

func TestIdempotencyMiddleware_KeyTooLong(t *testing.T) {
	r := newIdempotentRouter(uuid.New(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	long := make([]byte, maxIdempotencyKeyLen+1)
	for i := range long {
		long[i] = 'k'
	}
	require.Equal(t, http.StatusBadRequest, postWithKey(r, string(long)).Code)
}

func TestIdempotencyMiddleware_RedisErrorPassthrough(t *testing.T) {
	redispkg.SetClient(redisv9.NewClient(&redisv9.Options{Addr: "127.0.0.1:0", DialTimeout: 50 * time.Millisecond}))

	r := newIdempotentRouter(uuid.New(), func(c *gin.Context) { c.Status(http.StatusAccepted) })
	require.Equal(t, http.StatusAccepted, postWithKey(r, "idem-key").Code)
}

func TestIdempotencyMiddleware_Hooks(t *testing.T) {
	origGet, origSetNX, origSet, origDel := redisGet, redisSetNX, redisSet, redisDel
	t.Cleanup(func() {
		redisGet, redisSetNX, redisSet, redisDel = origGet, origSetNX, origSet, origDel
	})

	redisGet = func(context.Context, string) (string, error) { return "", redisv9.Nil }

	t.Run("lock held by concurrent request", func(t *testing.T) {
		redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) { return false, nil }
		r := newIdempotentRouter(uuid.New(), func(c *gin.Context) { c.Status(http.StatusCreated) })
		assert.Equal(t, http.StatusConflict, postWithKey(r, "k").Code)
	})

	t.Run("lock error proceeds", func(t *testing.T) {
		redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) {
			return false, errors.New("down")
		}
		r := newIdempotentRouter(uuid.New(), func(c *gin.Context) { c.Status(http.StatusCreated) })
		assert.Equal(t, http.StatusCreated, postWithKey(r, "k").Code)
	})

	t.Run("store failure releases lock", func(t *testing.T) {
		var deleted bool
		redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) { return true, nil }
		redisSet = func(context.Context, string, interface{}, time.Duration) error { return errors.New("down") }
		redisDel = func(context.Context, string) error {
			deleted = true
			return nil
		}
		r := newIdempotentRouter(uuid.New(), func(c *gin.Context) { c.Status(http.StatusCreated) })
		assert.Equal(t, http.StatusCreated, postWithKey(r, "k").Code)
		assert.True(t, deleted)
	})

	t.Run("unreadable record", func(t *testing.T) {
		redisGet = func(context.Context, string) (string, error) { return "not-json", nil }
		r := newIdempotentRouter(uuid.New(), func(c *gin.Context) { c.Status(http.StatusCreated) })
		assert.Equal(t, http.StatusConflict, postWithKey(r, "k").Code)
	})
}
