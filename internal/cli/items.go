package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
	"github.com/DataDaddy212/doney-mirror/internal/workspace"
)

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		parent    string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a goal or to-do",
		Long: `Add a root goal, or a to-do under --parent. The new node becomes the last
child of its parent.

A title with several lines, or lines read with --stdin, adds one node per
line. Lines are trimmed; blank and repeated lines are skipped.

Examples:
  doney add "Build a deck"
  doney add "Buy lumber" --parent 0190b5c2-...
  pbpaste | doney add --stdin --parent 0190b5c2-...`,
		Args: func(cmd *cobra.Command, args []string) error {
			if fromStdin {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if fromStdin {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read stdin", err)
				}
				title = string(data)
			}
			titles := tree.SplitTitles(title)

			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if fromStdin || len(titles) > 1 {
					return addBulk(ctx, a, parent, titles)
				}
				n, o, err := a.ws.Add(ctx, title, parent)
				if err != nil {
					return err
				}
				if err := rejected(workspace.OpAdd, parent, o); err != nil {
					return err
				}
				path, err := pathOf(ctx, a, n.ID)
				if err != nil {
					return err
				}
				return a.out.Result(n, fmt.Sprintf("Added %s %s\n", n.ID, path))
			})
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent id (default: new root goal)")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read titles from stdin, one per line")
	return cmd
}

// addBulk adds one node per title under parent in a single workspace step.
func addBulk(ctx context.Context, a *app, parent string, titles []string) error {
	if len(titles) == 0 {
		return rejected(workspace.OpAdd, parent, tree.InvalidTitle)
	}
	added, o, err := a.ws.ApplyPlan(ctx, parent, titles)
	if err != nil {
		return err
	}
	if err := rejected(workspace.OpAdd, parent, o); err != nil {
		return err
	}

	under := "root"
	if parent != tree.Root {
		if under, err = pathOf(ctx, a, parent); err != nil {
			return err
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Added %d node(s) under %s\n", len(added), under)
	for _, n := range added {
		fmt.Fprintf(&b, "  %s %s\n", n.ID, n.Title)
	}
	return a.out.Result(added, b.String())
}

// pathOf returns tree.Path for id in the current sequence.
func pathOf(ctx context.Context, a *app, id string) (string, error) {
	var path string
	err := a.ws.View(ctx, func(nodes []tree.Node) {
		path = tree.Path(id, nodes)
	})
	return path, err
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		under  string
		status string
		order  string
		level  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the goal tree",
		Long: `Print every goal as an indented outline, or the flat node list with
--format json. --under limits the output to one subtree.

--status, --level and --sort switch to a flat listing of the matching nodes,
each shown with its direct-children progress and its path from the goal.

Examples:
  doney list --level 1 --sort most-todos
  doney list --status open --sort newest`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(status, order, level)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid filter", err)
			}

			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				nodes, err := a.ws.Nodes(ctx)
				if err != nil {
					return err
				}
				if under != "" {
					n, ok := tree.Find(under, nodes)
					if !ok {
						return rejected("list", under, tree.NotFound)
					}
					subtree := append([]tree.Node{n}, tree.Descendants(under, nodes)...)
					if !filter.IsZero() {
						selected := within(tree.Select(nodes, filter), subtree)
						return a.out.Result(selected, listingText(selected, nodes))
					}
					view := make([]tree.Node, len(subtree))
					copy(view, subtree)
					view[0].ParentID = tree.Root
					return a.out.Result(subtree, tree.OutlineString(view))
				}
				if !filter.IsZero() {
					selected := tree.Select(nodes, filter)
					return a.out.Result(selected, listingText(selected, nodes))
				}
				if len(nodes) == 0 {
					return a.out.Result(nodes, "No goals yet.\n")
				}
				return a.out.Result(nodes, tree.OutlineString(nodes))
			})
		},
	}

	cmd.Flags().StringVar(&under, "under", "", "only show the subtree rooted at this id")
	cmd.Flags().StringVar(&status, "status", "", "only completed or open nodes")
	cmd.Flags().StringVar(&order, "sort", "", "newest or most-todos")
	cmd.Flags().IntVar(&level, "level", 0, "only nodes at this depth (1 = goals)")
	return cmd
}

// parseFilter validates the list filter flags.
func parseFilter(status, order string, level int) (tree.Filter, error) {
	if level < 0 {
		return tree.Filter{}, fmt.Errorf("level must be at least 1, got %d", level)
	}
	st, err := tree.ParseStatus(status)
	if err != nil {
		return tree.Filter{}, err
	}
	so, err := tree.ParseSortOrder(order)
	if err != nil {
		return tree.Filter{}, err
	}
	return tree.Filter{Status: st, Level: level, Sort: so}, nil
}

// within keeps the nodes of selected that also appear in subset, in
// selected's order.
func within(selected, subset []tree.Node) []tree.Node {
	keep := make(map[string]bool, len(subset))
	for _, n := range subset {
		keep[n.ID] = true
	}
	out := []tree.Node{}
	for _, n := range selected {
		if keep[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// listingText renders selected nodes one per line with their progress and
// path within nodes.
func listingText(selected, nodes []tree.Node) string {
	if len(selected) == 0 {
		return "No matching nodes.\n"
	}
	var b strings.Builder
	for _, n := range selected {
		b.WriteString(outlineLine(n))
		if !tree.IsLeaf(n.ID, nodes) {
			p := tree.DirectProgress(n.ID, nodes)
			fmt.Fprintf(&b, " %d/%d", p.Completed, p.Total)
		}
		if !n.IsRoot() {
			fmt.Fprintf(&b, "  %s", tree.Path(n.ID, nodes))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		title  string
		done   bool
		undone bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a node or change its completion",
		Long: `Update a node's title and/or completed flag. Only the given fields change;
updating to the current values is a no-op.

Examples:
  doney update <id> --done
  doney update <id> --title "Buy cedar boards"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var patch tree.Patch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			switch {
			case done && undone:
				return NewExitError(ExitCommandError, "--done and --undone are mutually exclusive")
			case done:
				patch.Completed = &done
			case undone:
				completed := false
				patch.Completed = &completed
			}
			if patch.Title == nil && patch.Completed == nil {
				return NewExitError(ExitCommandError, "nothing to update: use --title, --done or --undone")
			}

			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				n, o, err := a.ws.Update(ctx, id, patch)
				if err != nil {
					return err
				}
				if err := rejected(workspace.OpUpdate, id, o); err != nil {
					return err
				}
				return a.out.Result(n, fmt.Sprintf("%s %s\n", capitalize(string(o)), outlineLine(n)))
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().BoolVar(&done, "done", false, "mark completed")
	cmd.Flags().BoolVar(&undone, "undone", false, "mark not completed")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a node and everything beneath it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				removed, o, err := a.ws.Delete(ctx, id)
				if err != nil {
					return err
				}
				if err := rejected(workspace.OpDelete, id, o); err != nil {
					return err
				}
				return a.out.Result(
					map[string]any{"id": id, "removed": removed},
					fmt.Sprintf("Deleted %s (%d node(s))\n", id, removed))
			})
		},
	}
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		to       string
		position string
	)

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a node under a new parent",
		Long: `Reparent a node. Without --to the node becomes a root goal. --position
places it among its new siblings: start, end (default) or an index.

A node cannot be moved under itself or any of its descendants.

Examples:
  doney move <id> --to <goal-id>
  doney move <id> --to <goal-id> --position start
  doney move <id>`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			pos, err := tree.ParsePosition(position)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --position", err)
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				o, err := a.ws.Reparent(ctx, id, to, pos)
				if err != nil {
					return err
				}
				if err := rejected(workspace.OpReparent, id, o); err != nil {
					return err
				}
				dest := to
				if dest == tree.Root {
					dest = "root"
				}
				var (
					path string
					goal tree.Node
				)
				if err := a.ws.View(ctx, func(nodes []tree.Node) {
					path = tree.Path(id, nodes)
					goal, _ = tree.RootOf(id, nodes)
				}); err != nil {
					return err
				}
				return a.out.Result(
					map[string]any{"id": id, "parent": to, "position": pos.String(), "outcome": o, "path": path, "goal": goal.ID},
					fmt.Sprintf("%s: %s -> %s (%s)\n  %s\n", capitalize(string(o)), id, dest, pos, path))
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "new parent id (default: root)")
	cmd.Flags().StringVar(&position, "position", "end", "start, end or a sibling index")
	return cmd
}

// NewReorderCommand creates the reorder command.
func NewReorderCommand(rootOpts *RootOptions) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:           "reorder <id>",
		Short:         "Move a node to a new index among its siblings",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				o, err := a.ws.Reorder(ctx, id, index)
				if err != nil {
					return err
				}
				if err := rejected(workspace.OpReorder, id, o); err != nil {
					return err
				}
				return a.out.Result(
					map[string]any{"id": id, "index": index, "outcome": o},
					fmt.Sprintf("%s: %s -> index %d\n", capitalize(string(o)), id, index))
			})
		},
	}

	cmd.Flags().IntVar(&index, "index", 0, "new sibling index (clamped)")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

// NewReorderRootsCommand creates the reorder-roots command.
func NewReorderRootsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder-roots <id>...",
		Short: "Reorder the root goals",
		Long: `Put root goals in the given order. Roots not listed keep their relative
order after the listed ones; ids that are not roots are ignored.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				o, err := a.ws.ReorderRoots(ctx, args)
				if err != nil {
					return err
				}
				var roots []string
				if err := a.ws.View(ctx, func(nodes []tree.Node) {
					for _, r := range tree.Roots(nodes) {
						roots = append(roots, r.ID)
					}
				}); err != nil {
					return err
				}
				return a.out.Result(
					map[string]any{"roots": roots, "outcome": o},
					fmt.Sprintf("%s: %s\n", capitalize(string(o)), strings.Join(roots, ", ")))
			})
		},
	}
}

// outlineLine renders a single node the way the outline does.
func outlineLine(n tree.Node) string {
	return strings.TrimSuffix(tree.OutlineString([]tree.Node{{
		ID:        n.ID,
		Title:     n.Title,
		Completed: n.Completed,
	}}), "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
