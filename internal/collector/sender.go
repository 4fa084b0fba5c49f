package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"neypot.backend/pkg/logger"
)

const (
	TokenHeader = "X-API-TOKEN"
	Version     = "2.0.0"
	UserAgent   = "NeyPot-Collector/" + Version
)

var ErrUnauthorized = errors.New("ingest token rejected")

// IngestReply is the subset of the ingest response the sender checks.
type IngestReply struct {
	Success   bool   `json:"success"`
	EventID   string `json:"event_id"`
	RiskScore int    `json:"risk_score"`
	Error     string `json:"error"`
}

// Sender posts events to the ingest endpoint.
type Sender struct {
	endpoint string
	token    string
	client   *http.Client
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewSender(cfg *Config) *Sender {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Sender{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: cfg.RequestTimeout},
		attempts: attempts,
		delay:    cfg.RetryDelay,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable marks failures worth another attempt.
type retryable struct{ err error }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

// Send posts one event. Transport errors and 5xx responses are retried;
// 401 stops at once with ErrUnauthorized.
func (s *Sender) Send(ctx context.Context, ev *Event) (*IngestReply, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		reply, err := s.post(ctx, payload, ev.UserAgent)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		var retry retryable
		if !errors.As(err, &retry) {
			return nil, err
		}
		logger.Warn(ctx, "Ingest attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.attempts),
			zap.Error(err),
		)
		if attempt < s.attempts {
			if err := s.sleep(ctx, s.delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", s.attempts, lastErr)
}

func (s *Sender) post(ctx context.Context, payload []byte, agent string) (*IngestReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TokenHeader, s.token)
	// The server prefers the header over the body's user_agent.
	if agent == "" {
		agent = UserAgent
	}
	req.Header.Set("User-Agent", agent)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, retryable{fmt.Errorf("post event: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, retryable{fmt.Errorf("read response: %w", err)}
	}

	var reply IngestReply
	_ = json.Unmarshal(body, &reply)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, reply.Error)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, retryable{fmt.Errorf("server error %d: %s", resp.StatusCode, reply.Error)}
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("request rejected %d: %s", resp.StatusCode, reply.Error)
	case !reply.Success:
		return nil, fmt.Errorf("unexpected response %d: %s", resp.StatusCode, string(body))
	}
	return &reply, nil
}

// SendBatch posts events in order and stops early on ErrUnauthorized; the
// unsent remainder counts as failed.
func (s *Sender) SendBatch(ctx context.Context, events []*Event) (sent, failed int, err error) {
	for i, ev := range events {
		if _, sendErr := s.Send(ctx, ev); sendErr != nil {
			if errors.Is(sendErr, ErrUnauthorized) || ctx.Err() != nil {
				return sent, len(events) - i, sendErr
			}
			logger.Error(ctx, "Event not delivered", zap.String("source_ip", ev.SourceIP), zap.Error(sendErr))
			failed++
			continue
		}
		sent++
	}
	return sent, failed, nil
}
