package planner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDaddy212/doney-mirror/internal/metrics"
)

const validPlan = `{
  "parent": "Build a deck",
  "summary": "Buy, cut and assemble.",
  "materials": [{"name": "lumber", "qty": "20 boards"}],
  "steps": [
    {"title": "Buy lumber", "est_hours": 2, "suggested_role": "owner"},
    {"title": "Cut boards", "est_hours": 4, "dependencies": ["Buy lumber"]},
    {"title": "Assemble", "est_hours": 8, "due_by_days": 14}
  ]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixed(text string, err error) GeneratorFunc {
	return func(ctx context.Context, goal string) (string, error) {
		return text, err
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 0
	cfg.Timeout = time.Second
	return cfg
}

func TestClientPlanSuccess(t *testing.T) {
	m := metrics.New()
	c := NewClient(fixed(validPlan, nil), testConfig(), discardLogger(), m)

	p, err := c.Plan(context.Background(), "Build a deck")
	require.NoError(t, err)

	assert.Equal(t, "Build a deck", p.Parent)
	assert.Equal(t, []string{"Buy lumber", "Cut boards", "Assemble"}, p.Titles())
	assert.InDelta(t, 14.0, p.TotalHours(), 0.001)
	require.NotNil(t, p.Steps[2].DueByDays)
	assert.Equal(t, 14, *p.Steps[2].DueByDays)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlanRequestsTotal.WithLabelValues(metrics.PlanOK)))
}

func TestClientPlanFillsMissingParent(t *testing.T) {
	c := NewClient(fixed(`{"steps":[{"title":"Sand"}]}`, nil), testConfig(), discardLogger(), nil)

	p, err := c.Plan(context.Background(), "  Refinish table  ")
	require.NoError(t, err)
	assert.Equal(t, "Refinish table", p.Parent)
}

func TestClientPlanStripsCodeFence(t *testing.T) {
	fenced := "```json\n" + validPlan + "\n```"
	c := NewClient(fixed(fenced, nil), testConfig(), discardLogger(), nil)

	p, err := c.Plan(context.Background(), "Build a deck")
	require.NoError(t, err)
	assert.Len(t, p.Steps, 3)
}

func TestClientPlanBlankGoal(t *testing.T) {
	var calls atomic.Int32
	gen := GeneratorFunc(func(ctx context.Context, goal string) (string, error) {
		calls.Add(1)
		return validPlan, nil
	})
	c := NewClient(gen, testConfig(), discardLogger(), nil)

	_, err := c.Plan(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, IsInvalid(err))
	assert.Zero(t, calls.Load())
}

func TestClientPlanNotConfigured(t *testing.T) {
	c := NewClient(nil, testConfig(), discardLogger(), nil)

	assert.False(t, c.Configured())
	_, err := c.Plan(context.Background(), "Build a deck")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClientPlanGeneratorFailure(t *testing.T) {
	m := metrics.New()
	boom := errors.New("connection refused")
	c := NewClient(fixed("", boom), testConfig(), discardLogger(), m)

	_, err := c.Plan(context.Background(), "Build a deck")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlanRequestsTotal.WithLabelValues(metrics.PlanUnavailable)))
}

func TestClientPlanMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"prose", "Sure! Here is your plan: buy wood."},
		{"truncated", `{"steps": [{"title": "Buy`},
		{"wrong type", `{"steps": "buy wood"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(fixed(tt.text, nil), testConfig(), discardLogger(), nil)
			_, err := c.Plan(context.Background(), "Build a deck")
			require.Error(t, err)
			assert.True(t, IsMalformed(err), "got %v", err)
		})
	}
}

func TestClientPlanInvalid(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		message string
	}{
		{"no steps", `{"parent":"x","steps":[]}`, "steps must have at least 1 entries"},
		{"blank step title", `{"parent":"x","steps":[{"title":"  "}]}`, "steps[0].title is required"},
		{"negative hours", `{"parent":"x","steps":[{"title":"a","est_hours":-1}]}`, "steps[0].est_hours must be at least 0"},
		{"blank material", `{"parent":"x","materials":[{"name":""}],"steps":[{"title":"a"}]}`, "materials[0].name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			c := NewClient(fixed(tt.text, nil), testConfig(), discardLogger(), m)
			_, err := c.Plan(context.Background(), "Build a deck")
			require.Error(t, err)
			assert.True(t, IsInvalid(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.PlanRequestsTotal.WithLabelValues(metrics.PlanInvalid)))
		})
	}
}

func TestClientBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	gen := GeneratorFunc(func(ctx context.Context, goal string) (string, error) {
		calls.Add(1)
		return "", errors.New("timeout")
	})
	cfg := testConfig()
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Hour
	c := NewClient(gen, cfg, discardLogger(), nil)

	for i := 0; i < 4; i++ {
		_, err := c.Plan(context.Background(), "Build a deck")
		require.Error(t, err)
		assert.True(t, IsUnavailable(err))
	}
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the generator")
}

func TestClientMalformedDoesNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	gen := GeneratorFunc(func(ctx context.Context, goal string) (string, error) {
		calls.Add(1)
		return "not json", nil
	})
	cfg := testConfig()
	cfg.BreakerFailures = 1
	c := NewClient(gen, cfg, discardLogger(), nil)

	for i := 0; i < 3; i++ {
		_, err := c.Plan(context.Background(), "Build a deck")
		assert.True(t, IsMalformed(err))
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerMinute = 1
	cfg.Burst = 1
	c := NewClient(fixed(validPlan, nil), cfg, discardLogger(), nil)

	_, err := c.Plan(context.Background(), "Build a deck")
	require.NoError(t, err)

	_, err = c.Plan(context.Background(), "Build a deck")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestClientTimeout(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, goal string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	cfg := testConfig()
	cfg.Timeout = 10 * time.Millisecond
	c := NewClient(gen, cfg, discardLogger(), nil)

	_, err := c.Plan(context.Background(), "Build a deck")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, "", stripCodeFence("```"))
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{}, discardLogger())
	assert.ErrorIs(t, err, ErrNotConfigured)

	g, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: "http://localhost:1"}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.model)
}
