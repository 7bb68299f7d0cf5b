package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Node     string
	Expected string
	Actual   string
	Outline  string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	if e.Node == "" {
		fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	} else {
		fmt.Fprintf(&buf, "Assertion failed: %s of %s\n", e.Type, e.Node)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Outline != "" {
		fmt.Fprintf(&buf, "\nFinal tree:\n")
		for _, line := range strings.Split(strings.TrimRight(e.Outline, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against nodes and returns one
// message per failure.
func EvaluateAssertions(nodes []tree.Node, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(nodes, a); err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Outline = tree.OutlineString(nodes)
			}
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i+1, err))
		}
	}
	return errs
}

func evaluate(nodes []tree.Node, a Assertion) error {
	switch a.Type {
	case AssertChildren:
		return compareIDs(a, ids(tree.Children(a.Node, nodes)))

	case AssertSiblings:
		n, ok := tree.Find(a.Node, nodes)
		if !ok {
			return missing(a)
		}
		return compareIDs(a, ids(tree.Siblings(n.ParentID, nodes)))

	case AssertAncestors:
		if !tree.Contains(a.Node, nodes) {
			return missing(a)
		}
		return compareIDs(a, ids(tree.Ancestors(a.Node, nodes)))

	case AssertDescendants:
		if !tree.Contains(a.Node, nodes) {
			return missing(a)
		}
		return compareIDs(a, ids(tree.Descendants(a.Node, nodes)))

	case AssertDepth:
		want, err := intValue(a)
		if err != nil {
			return err
		}
		if !tree.Contains(a.Node, nodes) {
			return missing(a)
		}
		if got := tree.Depth(a.Node, nodes); got != want {
			return mismatch(a, want, got)
		}

	case AssertCount:
		want, err := intValue(a)
		if err != nil {
			return err
		}
		if got := len(nodes); got != want {
			return mismatch(a, want, got)
		}

	case AssertCompleted:
		want, ok := a.Value.(bool)
		if !ok {
			return fmt.Errorf("%s: value must be true or false, got %v", a.Type, a.Value)
		}
		n, found := tree.Find(a.Node, nodes)
		if !found {
			return missing(a)
		}
		if n.Completed != want {
			return mismatch(a, want, n.Completed)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func compareIDs(a Assertion, got []string) error {
	want := a.Expect
	if want == nil {
		want = []string{}
	}
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Node:     a.Node,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
	}
}

func missing(a Assertion) error {
	return &AssertionError{
		Type:     a.Type,
		Node:     a.Node,
		Expected: fmt.Sprintf("node %s to exist", a.Node),
		Actual:   "not found",
	}
}

func mismatch(a Assertion, want, got any) error {
	return &AssertionError{
		Type:     a.Type,
		Node:     a.Node,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
	}
}

func intValue(a Assertion) (int, error) {
	switch v := a.Value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("%s: value must be an integer, got %v", a.Type, a.Value)
}
