package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DataDaddy212/doney-mirror/internal/config"
	"github.com/DataDaddy212/doney-mirror/internal/metrics"
	"github.com/DataDaddy212/doney-mirror/internal/planner"
	"github.com/DataDaddy212/doney-mirror/internal/tree"
	"github.com/DataDaddy212/doney-mirror/internal/workspace"
)

// newGenerator builds the plan generator from config. It returns a nil
// Generator when no API key is set. Tests replace it.
var newGenerator = func(cfg config.PlannerConfig, logger *slog.Logger) (planner.Generator, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, nil
	}
	return planner.NewOpenAIGenerator(planner.OpenAIConfig{
		APIKey:  key,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}, logger)
}

// newPlanner wraps the configured generator in a rate-limited client.
func newPlanner(cfg config.PlannerConfig, logger *slog.Logger, m *metrics.Recorder) (*planner.Client, error) {
	gen, err := newGenerator(cfg, logger)
	if err != nil {
		return nil, err
	}
	pc := planner.DefaultConfig()
	pc.Timeout = cfg.Timeout.Std()
	pc.RequestsPerMinute = cfg.RequestsPerMinute
	return planner.NewClient(gen, pc, logger, m), nil
}

// PlanResult is the JSON output of the plan command.
type PlanResult struct {
	Plan  *planner.Plan `json:"plan"`
	Added []tree.Node   `json:"added,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "plan <id>",
		Short: "Ask the planner to break a goal into steps",
		Long: `Generate a step-by-step plan for the goal or to-do with the given id.
The planner is an OpenAI-compatible chat model; the API key is read from the
environment variable named by planner.api_key_env (default OPENAI_API_KEY).

--apply adds the steps as children of the node, in plan order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				client, err := newPlanner(a.cfg.Planner, a.logger, a.metrics)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to configure planner", err)
				}
				if !client.Configured() {
					return NewExitError(ExitCommandError,
						fmt.Sprintf("planner not configured: set %s", a.cfg.Planner.APIKeyEnv))
				}

				var goal tree.Node
				var found bool
				if err := a.ws.View(ctx, func(nodes []tree.Node) {
					goal, found = tree.Find(id, nodes)
				}); err != nil {
					return err
				}
				if !found {
					return rejected(workspace.OpApplyPlan, id, tree.NotFound)
				}

				p, err := client.Plan(ctx, goal.Title)
				if err != nil {
					return planFailure(err)
				}

				result := PlanResult{Plan: p}
				if apply {
					added, o, err := a.ws.ApplyPlan(ctx, id, p.Titles())
					if err != nil {
						return err
					}
					if err := rejected(workspace.OpApplyPlan, id, o); err != nil {
						return err
					}
					result.Added = added
				}
				return a.out.Result(result, planText(goal, result))
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "add the steps as children of the node")
	return cmd
}

// planFailure maps planner errors to exit codes: bad responses are failures,
// an unreachable planner is a command error.
func planFailure(err error) error {
	if planner.IsUnavailable(err) {
		return WrapExitError(ExitCommandError, "planner unavailable", err)
	}
	return WrapExitError(ExitFailure, "planner returned an unusable plan", err)
}

func planText(goal tree.Node, r PlanResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan for %s\n", goal.Title)
	if r.Plan.Summary != "" {
		fmt.Fprintf(&b, "%s\n", r.Plan.Summary)
	}
	b.WriteString("\n")
	for i, s := range r.Plan.Steps {
		fmt.Fprintf(&b, "%2d. %s", i+1, s.Title)
		if s.EstHours > 0 {
			fmt.Fprintf(&b, " (%.1fh)", s.EstHours)
		}
		b.WriteString("\n")
	}
	if len(r.Plan.Materials) > 0 {
		b.WriteString("\nMaterials:\n")
		for _, m := range r.Plan.Materials {
			if m.Qty != "" {
				fmt.Fprintf(&b, "  - %s x %s\n", m.Name, m.Qty)
			} else {
				fmt.Fprintf(&b, "  - %s\n", m.Name)
			}
		}
	}
	if total := r.Plan.TotalHours(); total > 0 {
		fmt.Fprintf(&b, "\nEstimated total: %.1fh\n", total)
	}
	if len(r.Added) > 0 {
		fmt.Fprintf(&b, "\nAdded %d to-do(s) under %s\n", len(r.Added), goal.ID)
	}
	return b.String()
}
