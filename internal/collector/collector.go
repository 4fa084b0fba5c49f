package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"neypot.backend/internal/domain/entities"
	"neypot.backend/internal/usecases"
	"neypot.backend/pkg/logger"
)

const finalFlushTimeout = 30 * time.Second

// eventSender is satisfied by *Sender.
type eventSender interface {
	Send(ctx context.Context, ev *Event) (*IngestReply, error)
	SendBatch(ctx context.Context, events []*Event) (sent, failed int, err error)
}

// Stats summarises one collector run.
type Stats struct {
	Parsed  int
	Skipped int
	Sent    int
	Failed  int
}

func (s *Stats) add(o Stats) {
	s.Parsed += o.Parsed
	s.Skipped += o.Skipped
	s.Sent += o.Sent
	s.Failed += o.Failed
}

// Collector tails every configured source and forwards parsed events in
// batches.
type Collector struct {
	cfg     *Config
	sender  eventSender
	scorer  *usecases.RiskScorer
	tailers func(Source) *Tailer
	// endpointURI is what the server sees as the request URI.
	endpointURI string
}

func New(cfg *Config, sender eventSender) *Collector {
	endpointURI := "/"
	if u, err := url.Parse(cfg.Endpoint); err == nil {
		endpointURI = u.RequestURI()
	}
	return &Collector{
		cfg:         cfg,
		sender:      sender,
		scorer:      usecases.DefaultRiskScorer(),
		tailers:     func(src Source) *Tailer { return NewTailer(src.Path, src.Following()) },
		endpointURI: endpointURI,
	}
}

// Run blocks until every source is exhausted (no-follow) or ctx ends. It
// returns early if the ingest token is rejected.
func (c *Collector) Run(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		total    Stats
		firstErr error
	)
	for _, src := range c.cfg.Sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			stats, err := c.runSource(ctx, src)
			mu.Lock()
			defer mu.Unlock()
			total.add(stats)
			if err != nil && firstErr == nil {
				firstErr = err
				cancel()
			}
		}(src)
	}
	wg.Wait()
	return total, firstErr
}

func (c *Collector) runSource(ctx context.Context, src Source) (Stats, error) {
	logger.Info(ctx, "Collecting",
		zap.String("service", src.Service),
		zap.String("path", src.Path),
		zap.Bool("follow", src.Following()),
		zap.Bool("dry_run", c.cfg.DryRun),
	)

	var (
		stats   Stats
		batch   []*Event
		sendErr error
	)
	flush := func(ctx context.Context) {
		if len(batch) == 0 || sendErr != nil {
			return
		}
		sent, failed, err := c.sender.SendBatch(ctx, batch)
		stats.Sent += sent
		stats.Failed += failed
		batch = batch[:0]
		if err != nil {
			sendErr = err
			return
		}
		logger.Info(ctx, "Batch sent", zap.String("service", src.Service), zap.Int("sent", sent), zap.Int("failed", failed))
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	tailErr := c.tailers(src).Run(ctx, func(line string) {
		ev, ok := ParseLine(src.Service, line)
		if !ok {
			stats.Skipped++
			return
		}
		stats.Parsed++
		c.logEvent(ctx, stats.Parsed, ev)

		if c.cfg.DryRun {
			return
		}
		batch = append(batch, ev)
		if len(batch) >= c.cfg.BatchSize {
			flush(ctx)
			if sendErr != nil {
				stop()
			}
		}
	})

	// Deliver what is left even when the run was cancelled.
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
	defer cancel()
	if len(batch) > 0 && sendErr == nil {
		logger.Info(ctx, "Sending remaining events", zap.Int("count", len(batch)))
	}
	flush(flushCtx)

	logger.Info(ctx, "Source finished",
		zap.String("service", src.Service),
		zap.Int("parsed", stats.Parsed),
		zap.Int("sent", stats.Sent),
		zap.Int("failed", stats.Failed),
	)

	if sendErr != nil {
		return stats, sendErr
	}
	if tailErr != nil {
		return stats, fmt.Errorf("%s: %w", src.Path, tailErr)
	}
	return stats, nil
}

// PreviewScore scores the event exactly as the server will: the JSON body
// the sender posts, with path, method and user agent resolved from it. Empty
// fields fall back to what the server takes from the POST itself.
func (c *Collector) PreviewScore(ev *Event) int {
	body, err := json.Marshal(ev)
	if err != nil {
		return 0
	}
	path, method, agent := ev.Path, ev.Method, ev.UserAgent
	if path == "" {
		path = c.endpointURI
	}
	if method == "" {
		method = http.MethodPost
	}
	if agent == "" {
		agent = UserAgent
	}
	return c.scorer.Score(usecases.ScoreInput{
		Service:   usecases.ClassifyService(ev.Service),
		Path:      path,
		Method:    method,
		UserAgent: agent,
		Body:      string(body),
	})
}

func (c *Collector) logEvent(ctx context.Context, n int, ev *Event) {
	score := c.PreviewScore(ev)
	level := entities.LevelForScore(score)
	fields := []zap.Field{
		zap.Int("n", n),
		zap.Int("risk", score),
		zap.String("level", string(level)),
		zap.String("source_ip", ev.SourceIP),
		zap.String("path", ev.Path),
		zap.String("pattern", ev.Pattern),
	}
	if score >= entities.RiskHigh.MinScore() {
		logger.Warn(ctx, "Event", fields...)
		return
	}
	logger.Info(ctx, "Event", fields...)
}

// TestConnection posts a test-honeypot event and reports the server's reply.
func TestConnection(ctx context.Context, sender eventSender) (*IngestReply, error) {
	reply, err := sender.Send(ctx, &Event{
		SourceIP:  "127.0.0.1",
		Path:      "/test/connection",
		Method:    "GET",
		UserAgent: UserAgent,
		Service:   string(entities.ServiceTest),
		Body:      "Connection test from collector",
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, fmt.Errorf("token is not valid: %w", err)
		}
		return nil, err
	}
	return reply, nil
}
