package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/DataDaddy212/doney-mirror/internal/metrics"
)

// Config tunes a Client.
type Config struct {
	// Timeout bounds one Generate call.
	Timeout time.Duration

	// RequestsPerMinute limits calls to the generator. Zero means unlimited.
	RequestsPerMinute int

	// Burst is the number of calls allowed at once (default 1).
	Burst int

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker.
	BreakerFailures uint32

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
}

// DefaultConfig returns the settings used by doney.
func DefaultConfig() Config {
	return Config{
		Timeout:           30 * time.Second,
		RequestsPerMinute: 10,
		Burst:             2,
		BreakerFailures:   3,
		BreakerTimeout:    60 * time.Second,
	}
}

// Client requests, parses and validates plans.
type Client struct {
	gen     Generator
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewClient wraps gen with rate limiting and a circuit breaker.
// A nil gen yields a client whose every call is KindUnavailable.
func NewClient(gen Generator, cfg Config, logger *slog.Logger, m *metrics.Recorder) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultConfig().BreakerFailures
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	c := &Client{
		gen:     gen,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger,
		metrics: m,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "planner",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Configured reports whether the client has a generator.
func (c *Client) Configured() bool {
	return c.gen != nil
}

// Plan asks the generator for a plan for goal. Every failure is an *Error.
//
// Only transport failures count against the circuit breaker; a response that
// arrives but does not parse or validate means the service is up.
func (c *Client) Plan(ctx context.Context, goal string) (*Plan, error) {
	p, err := c.plan(ctx, goal)
	switch {
	case err == nil:
		c.metrics.Plan(metrics.PlanOK)
	default:
		c.metrics.Plan(string(KindOf(err)))
		c.logger.Warn("plan request failed", "goal", goal, "error", err)
	}
	return p, err
}

func (c *Client) plan(ctx context.Context, goal string) (*Plan, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, invalid(errors.New("goal is required"))
	}
	if c.gen == nil {
		return nil, unavailable(ErrNotConfigured)
	}

	if !c.limiter.Allow() {
		return nil, unavailable(errors.New("rate limit exceeded"))
	}

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		callCtx := ctx
		if c.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
		}
		return c.gen.Generate(callCtx, goal)
	})
	if err != nil {
		return nil, unavailable(err)
	}

	p, err := Parse(raw.(string))
	if err != nil {
		return nil, err
	}
	if p.Parent == "" {
		p.Parent = goal
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	return p, nil
}

// Parse decodes a plan from model output. A surrounding Markdown code fence
// is tolerated. Failures are *Error of KindMalformed.
func Parse(text string) (*Plan, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return nil, malformed(errors.New("empty response"))
	}

	var p Plan
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, malformed(fmt.Errorf("decode plan: %w", err))
	}
	return &p, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
