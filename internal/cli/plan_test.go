package cli

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDaddy212/doney-mirror/internal/config"
	"github.com/DataDaddy212/doney-mirror/internal/planner"
	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

const deckPlan = `{
  "parent": "Build a deck",
  "summary": "A weekend build.",
  "materials": [{"name": "Cedar boards", "qty": "12"}],
  "steps": [
    {"title": "Measure the yard", "est_hours": 1},
    {"title": "Pour footings", "est_hours": 4},
    {"title": "Lay the boards", "est_hours": 6}
  ]
}`

// stubGenerator makes newGenerator return gen for the rest of the test.
func stubGenerator(t *testing.T, gen planner.Generator) {
	t.Helper()
	orig := newGenerator
	newGenerator = func(config.PlannerConfig, *slog.Logger) (planner.Generator, error) {
		return gen, nil
	}
	t.Cleanup(func() { newGenerator = orig })
}

func fixedPlan(body string, err error) planner.GeneratorFunc {
	return func(ctx context.Context, goal string) (string, error) {
		return body, err
	}
}

func TestPlanPrintsSteps(t *testing.T) {
	stubGenerator(t, fixedPlan(deckPlan, nil))
	db := tempDB(t)
	a := addNode(t, db, "Build a deck", "")

	out, err := runCLI(t, db, "plan", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Plan for Build a deck")
	assert.Contains(t, out, " 2. Pour footings (4.0h)")
	assert.Contains(t, out, "Cedar boards x 12")
	assert.Contains(t, out, "Estimated total: 11.0h")

	assert.Len(t, listNodes(t, db), 1)
}

func TestPlanApply(t *testing.T) {
	stubGenerator(t, fixedPlan(deckPlan, nil))
	db := tempDB(t)
	a := addNode(t, db, "Build a deck", "")

	out, err := runCLI(t, db, "--format", "json", "plan", a.ID, "--apply")
	require.NoError(t, err)
	var r PlanResult
	decodeData(t, out, &r)
	require.Len(t, r.Added, 3)

	var titles []string
	for _, n := range tree.Children(a.ID, listNodes(t, db)) {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"Measure the yard", "Pour footings", "Lay the boards"}, titles)
}

func TestPlanNotConfigured(t *testing.T) {
	t.Setenv(config.DefaultAPIKeyEnv, "")
	db := tempDB(t)
	a := addNode(t, db, "Build a deck", "")

	_, err := runCLI(t, db, "plan", a.ID)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "planner not configured")
}

func TestPlanUnknownNode(t *testing.T) {
	stubGenerator(t, fixedPlan(deckPlan, nil))

	_, err := runCLI(t, tempDB(t), "plan", "missing")
	require.Error(t, err)
	assert.True(t, tree.IsNotFound(err))
}

func TestPlanFailures(t *testing.T) {
	db := tempDB(t)
	a := addNode(t, db, "Build a deck", "")

	stubGenerator(t, fixedPlan("", errors.New("connection refused")))
	_, err := runCLI(t, db, "plan", a.ID)
	require.Error(t, err)
	assert.True(t, planner.IsUnavailable(err))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	stubGenerator(t, fixedPlan("not json", nil))
	_, err = runCLI(t, db, "plan", a.ID, "--apply")
	require.Error(t, err)
	assert.True(t, planner.IsMalformed(err))
	assert.Equal(t, ExitFailure, GetExitCode(err))

	stubGenerator(t, fixedPlan(`{"steps": []}`, nil))
	_, err = runCLI(t, db, "plan", a.ID)
	require.Error(t, err)
	assert.True(t, planner.IsInvalid(err))

	assert.Len(t, listNodes(t, db), 1)
}
