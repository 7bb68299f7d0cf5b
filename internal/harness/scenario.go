package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// Scenario is a named list of steps and the assertions that must hold after
// them.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []Step      `yaml:"steps"`
	Assertions  []Assertion `yaml:"assertions"`
}

// Step is one mutation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// As is the id given to the node an add step creates.
	As string `yaml:"as,omitempty"`

	ID        string   `yaml:"id,omitempty"`
	Title     *string  `yaml:"title,omitempty"`
	Parent    string   `yaml:"parent,omitempty"`
	Completed *bool    `yaml:"completed,omitempty"`
	Index     *int     `yaml:"index,omitempty"`
	Position  string   `yaml:"position,omitempty"`
	IDs       []string `yaml:"ids,omitempty"`

	// Expect is the outcome the step must produce. Empty means any outcome
	// that is not a rejection.
	Expect tree.Outcome `yaml:"expect,omitempty"`
}

// Assertion checks the final sequence.
type Assertion struct {
	Type string `yaml:"type"`

	// Node is the subject id. For children, empty means the root goals.
	Node string `yaml:"node,omitempty"`

	// Expect is the ordered id list for list assertions.
	Expect []string `yaml:"expect,omitempty"`

	// Value is the expected number (depth, count) or flag (completed).
	Value any `yaml:"value,omitempty"`
}

// Step operations.
const (
	OpAdd          = "add"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpReorder      = "reorder"
	OpReparent     = "reparent"
	OpReorderRoots = "reorder_roots"
)

// Assertion types.
const (
	AssertChildren    = "children"
	AssertSiblings    = "siblings"
	AssertDepth       = "depth"
	AssertCount       = "count"
	AssertAncestors   = "ancestors"
	AssertDescendants = "descendants"
	AssertCompleted   = "completed"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, st *Step) error {
	switch st.Expect {
	case "", tree.Applied, tree.Unchanged, tree.NotFound, tree.CycleRejected, tree.InvalidTitle:
	default:
		return fmt.Errorf("steps[%d]: unknown outcome %q", i, st.Expect)
	}

	switch st.Op {
	case OpAdd:
		if st.Title == nil {
			return fmt.Errorf("steps[%d]: title is required for add", i)
		}
	case OpUpdate:
		if st.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for update", i)
		}
		if st.Title == nil && st.Completed == nil {
			return fmt.Errorf("steps[%d]: update needs title or completed", i)
		}
	case OpDelete:
		if st.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for delete", i)
		}
	case OpReorder:
		if st.ID == "" || st.Index == nil {
			return fmt.Errorf("steps[%d]: id and index are required for reorder", i)
		}
	case OpReparent:
		if st.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for reparent", i)
		}
		if _, err := tree.ParsePosition(st.Position); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	case OpReorderRoots:
		if len(st.IDs) == 0 {
			return fmt.Errorf("steps[%d]: ids is required for reorder_roots", i)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
	}
	return nil
}

func validateAssertion(i int, a *Assertion) error {
	switch a.Type {
	case AssertChildren:
	case AssertSiblings, AssertAncestors, AssertDescendants:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for %s", i, a.Type)
		}
	case AssertDepth, AssertCompleted:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for %s", i, a.Type)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for %s", i, a.Type)
		}
	case AssertCount:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for count", i)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
