package tree

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Outline writes one line per node reachable from a root goal, depth-first in
// sibling order:
//
//	- [ ] Build a deck (A)
//	  - [x] Buy lumber (B)
//
// Nodes that no root reaches (dangling or cyclic) are not written.
func Outline(w io.Writer, nodes []Node) error {
	bw := bufio.NewWriter(w)

	var write func(ts []*TreeNode) error
	write = func(ts []*TreeNode) error {
		for _, t := range ts {
			mark := " "
			if t.Node.Completed {
				mark = "x"
			}
			indent := strings.Repeat("  ", t.Depth-1)
			if _, err := fmt.Fprintf(bw, "%s- [%s] %s (%s)\n", indent, mark, t.Node.Title, t.Node.ID); err != nil {
				return err
			}
			if err := write(t.Children); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(Build(nodes)); err != nil {
		return fmt.Errorf("write outline: %w", err)
	}
	return bw.Flush()
}

// OutlineString returns Outline as a string.
func OutlineString(nodes []Node) string {
	var b strings.Builder
	_ = Outline(&b, nodes)
	return b.String()
}
