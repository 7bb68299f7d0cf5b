package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DataDaddy212/doney-mirror/internal/snapshot"
	"github.com/DataDaddy212/doney-mirror/internal/store"
	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// CheckResult is the JSON output of the check command.
type CheckResult struct {
	Key        string           `json:"key"`
	Stored     bool             `json:"stored"`
	Valid      bool             `json:"valid"`
	Nodes      int              `json:"nodes"`
	Revision   int64            `json:"revision,omitempty"`
	Digest     string           `json:"digest,omitempty"`
	Problem    string           `json:"problem,omitempty"`
	Violations []tree.Violation `json:"violations,omitempty"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Summarize the goal tree",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				var s tree.Stats
				if err := a.ws.View(ctx, func(nodes []tree.Node) {
					s = tree.Summarize(nodes)
				}); err != nil {
					return err
				}

				var b strings.Builder
				fmt.Fprintf(&b, "Goals:      %d\n", s.Roots)
				fmt.Fprintf(&b, "To-dos:     %d\n", s.Todos)
				fmt.Fprintf(&b, "Completed:  %d/%d\n", s.Completed, s.Total)
				fmt.Fprintf(&b, "Max depth:  %d\n", s.MaxDepth)
				fmt.Fprintf(&b, "Avg depth:  %.2f\n", s.AverageDepth)
				return a.out.Result(s, b.String())
			})
		},
	}
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the stored snapshot",
		Long: `Validate the stored snapshot without modifying it: the payload must match
the schema, ids must be unique, every parent must exist and no node may be its
own ancestor. The stored digest is checked against the decoded nodes.

Exit codes:
  0 - Snapshot valid (or nothing stored)
  1 - Snapshot invalid
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			result := checkSnapshot(commandContext(cmd), st, cfg.StorageKey)
			out := newFormatter(rootOpts, cmd)
			if err := out.Result(result, checkText(result)); err != nil {
				return err
			}
			if !result.Valid {
				return &ExitError{
					Code:     ExitFailure,
					Message:  fmt.Sprintf("snapshot %s is invalid", cfg.StorageKey),
					Reported: rootOpts.Format == "json",
				}
			}
			return nil
		},
	}
}

func checkSnapshot(ctx context.Context, st *store.Store, key string) CheckResult {
	result := CheckResult{Key: key, Valid: true}

	doc, err := st.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return result
	}
	if err != nil {
		result.Valid = false
		result.Problem = err.Error()
		return result
	}
	result.Stored = true
	result.Revision = doc.Revision
	result.Digest = doc.Digest

	nodes, err := snapshot.Decode(doc.Payload)
	if err != nil {
		result.Valid = false
		result.Problem = err.Error()
		var ve *snapshot.ValidationError
		if errors.As(err, &ve) {
			result.Violations = ve.Violations
		}
		return result
	}
	result.Nodes = len(nodes)

	if digest, err := snapshot.Digest(nodes); err != nil || digest != doc.Digest {
		result.Valid = false
		result.Problem = "stored digest does not match the payload"
	}
	return result
}

func checkText(r CheckResult) string {
	var b strings.Builder
	switch {
	case !r.Stored && r.Valid:
		fmt.Fprintf(&b, "No snapshot stored under %s\n", r.Key)
	case r.Valid:
		fmt.Fprintf(&b, "✓ %s: %d node(s), revision %d\n", r.Key, r.Nodes, r.Revision)
	default:
		fmt.Fprintf(&b, "✗ %s: %s\n", r.Key, r.Problem)
		for _, v := range r.Violations {
			fmt.Fprintf(&b, "  %s\n", v)
		}
	}
	return b.String()
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var canonical bool

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the snapshot as JSON",
		Long: `Write the current node sequence as a JSON array to file, or to stdout.
--canonical writes the canonical form used for digests.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				nodes, err := a.ws.Nodes(ctx)
				if err != nil {
					return err
				}
				encode := snapshot.Encode
				if canonical {
					encode = snapshot.Canonical
				}
				data, err := encode(nodes)
				if err != nil {
					return err
				}

				if len(args) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}
				if err := os.WriteFile(args[0], data, 0o644); err != nil {
					return WrapExitError(ExitCommandError, "failed to write export", err)
				}
				a.out.VerboseLog("exported %d node(s) to %s", len(nodes), args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&canonical, "canonical", false, "write canonical JSON")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the snapshot with a JSON file",
		Long: `Replace every stored node with the contents of a JSON export. The file is
validated first; an invalid file leaves the stored snapshot untouched. Payloads
that carry a legacy "order" field are sorted by it within each sibling group.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read import", err)
			}
			nodes, err := snapshot.Decode(data)
			if err != nil {
				return WrapExitError(ExitFailure, "invalid import", err)
			}

			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if err := a.ws.Replace(ctx, nodes); err != nil {
					return err
				}
				return a.out.Result(
					map[string]int{"imported": len(nodes)},
					fmt.Sprintf("Imported %d node(s)\n", len(nodes)))
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List saved revisions of the snapshot",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			revs, err := st.History(commandContext(cmd), cfg.StorageKey, limit)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read history", err)
			}

			var b strings.Builder
			if len(revs) == 0 {
				fmt.Fprintf(&b, "No revisions saved under %s\n", cfg.StorageKey)
			}
			for _, r := range revs {
				fmt.Fprintf(&b, "%4d  %s  %3d node(s)  %s\n",
					r.Revision,
					time.UnixMilli(r.SavedAt).UTC().Format(time.RFC3339),
					r.Nodes,
					shortDigest(r.Digest))
			}
			return newFormatter(rootOpts, cmd).Result(revs, b.String())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum revisions to show")
	return cmd
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
