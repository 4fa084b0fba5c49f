package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, endpoint string) (*Sender, *[]time.Duration) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Token = "np_test_token"
	cfg.RetryDelay = 5 * time.Second

	s := NewSender(cfg)
	var slept []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return s, &slept
}

func sampleEvent() *Event {
	return &Event{
		SourceIP:  "192.0.2.10",
		Path:      "/ssh",
		Method:    "SSH",
		UserAgent: "ssh-honeypot",
		Service:   "ssh-honeypot",
		Body:      "Failed password for root",
		Username:  "root",
		Pattern:   "auth_failed",
	}
}

func writeReply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestSender_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "np_test_token", r.Header.Get(TokenHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "ssh-honeypot", r.Header.Get("User-Agent"))

		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "192.0.2.10", payload["source_ip"])
		assert.Equal(t, "root", payload["username"])
		assert.NotContains(t, payload, "Pattern")

		writeReply(w, http.StatusOK, `{"success":true,"event_id":"evt-1","risk_score":70,"service":"ssh-honeypot","version":"2.0.0"}`)
	}))
	defer srv.Close()

	s, slept := newTestSender(t, srv.URL)
	reply, err := s.Send(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, "evt-1", reply.EventID)
	assert.Equal(t, 70, reply.RiskScore)
	assert.Empty(t, *slept)
}

func TestSender_DefaultUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		writeReply(w, http.StatusOK, `{"success":true}`)
	}))
	defer srv.Close()

	s, _ := newTestSender(t, srv.URL)
	ev := sampleEvent()
	ev.UserAgent = ""
	_, err := s.Send(context.Background(), ev)
	require.NoError(t, err)
}

func TestSender_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    []int
		body      string
		wantCalls int32
		wantSleep int
		wantErr   string
		unauth    bool
	}{
		{name: "unauthorized stops at once", status: []int{401}, body: `{"error":"Invalid API token"}`, wantCalls: 1, wantErr: "Invalid API token", unauth: true},
		{name: "server errors are retried", status: []int{503, 503, 503}, body: `{"error":"down"}`, wantCalls: 3, wantSleep: 2, wantErr: "giving up after 3 attempts"},
		{name: "client errors are not retried", status: []int{400}, body: `{"error":"Invalid request"}`, wantCalls: 1, wantErr: "request rejected 400"},
		{name: "success flag required", status: []int{200}, body: `{"ok":true}`, wantCalls: 1, wantErr: "unexpected response 200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				writeReply(w, tt.status[n-1], tt.body)
			}))
			defer srv.Close()

			s, slept := newTestSender(t, srv.URL)
			_, err := s.Send(context.Background(), sampleEvent())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.unauth, errors.Is(err, ErrUnauthorized))
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			assert.Len(t, *slept, tt.wantSleep)
			for _, d := range *slept {
				assert.Equal(t, 5*time.Second, d)
			}
		})
	}
}

func TestSender_RecoversAfterServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeReply(w, http.StatusInternalServerError, `{"error":"Internal server error"}`)
			return
		}
		writeReply(w, http.StatusOK, `{"success":true,"event_id":"evt-2"}`)
	}))
	defer srv.Close()

	s, slept := newTestSender(t, srv.URL)
	reply, err := s.Send(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, "evt-2", reply.EventID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, *slept, 1)
}

func TestSender_TransportErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	s, slept := newTestSender(t, endpoint)
	_, err := s.Send(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post event")
	assert.Len(t, *slept, DefaultRetryAttempts-1)
}

func TestSender_CancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeReply(w, http.StatusBadGateway, `{}`)
	}))
	defer srv.Close()

	s, _ := newTestSender(t, srv.URL)
	s.sleep = sleepCtx
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Send(ctx, sampleEvent())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSender_SendBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		switch ev.Path {
		case "/bad":
			writeReply(w, http.StatusBadRequest, `{"error":"Invalid request"}`)
		case "/unauthorized":
			writeReply(w, http.StatusUnauthorized, `{"error":"Token revoked"}`)
		default:
			writeReply(w, http.StatusOK, `{"success":true}`)
		}
	}))
	defer srv.Close()

	s, _ := newTestSender(t, srv.URL)
	event := func(path string) *Event {
		ev := sampleEvent()
		ev.Path = path
		return ev
	}

	sent, failed, err := s.SendBatch(context.Background(), []*Event{event("/a"), event("/bad"), event("/b")})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)

	sent, failed, err = s.SendBatch(context.Background(), []*Event{event("/a"), event("/unauthorized"), event("/b")})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 2, failed)
}
