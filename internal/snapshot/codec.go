package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://doney.dev/schema/items.json"

var itemsSchema = jsonschema.MustCompileString(schemaURL, schemaJSON)

// ValidationError reports why a payload was rejected by Decode.
type ValidationError struct {
	// Path is the JSON location of the problem ("3/title"), empty for the
	// payload as a whole.
	Path string

	// Message describes the problem.
	Message string

	// Violations is set when the payload was well-formed but broke the
	// tree invariants.
	Violations []tree.Violation
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("snapshot invalid at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("snapshot invalid: %s", e.Message)
}

// record is the decoded form of one persisted item, including fields only
// older payloads carry.
type record struct {
	tree.Node
	Order *float64
}

func (r *record) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Node); err != nil {
		return err
	}
	var legacy struct {
		Order *float64 `json:"order"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	r.Order = legacy.Order
	return nil
}

// Encode returns the persisted JSON array for nodes. A nil sequence encodes
// as an empty array.
func Encode(nodes []tree.Node) ([]byte, error) {
	if nodes == nil {
		nodes = []tree.Node{}
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates a persisted payload. Empty or whitespace-only
// input decodes to an empty sequence.
//
// Errors are *ValidationError for payloads that parse but are not a valid
// sequence, or a wrapped JSON syntax error.
func Decode(data []byte) ([]tree.Node, error) {
	nodes, err := parse(data)
	if err != nil {
		return nil, err
	}
	if v := tree.Check(nodes); len(v) > 0 {
		return nil, &ValidationError{
			Path:       fmt.Sprintf("%d", v[0].Index),
			Message:    fmt.Sprintf("%d structural violation(s), first: %s", len(v), v[0]),
			Violations: v,
		}
	}
	return nodes, nil
}

// DecodeRepaired is Decode for data the caller would rather salvage than
// lose. Syntax and schema errors fail as in Decode; a payload that parses but
// breaks the tree invariants is passed through tree.Repair and the
// violations it found are returned alongside the repaired sequence.
func DecodeRepaired(data []byte) ([]tree.Node, []tree.Violation, error) {
	nodes, err := parse(data)
	if err != nil {
		return nil, nil, err
	}
	repaired, violations := tree.Repair(nodes)
	return repaired, violations, nil
}

// parse decodes and schema-checks data without checking tree invariants.
func parse(data []byte) ([]tree.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []tree.Node{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := itemsSchema.Validate(doc); err != nil {
		return nil, schemaError(err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return applyLegacyOrder(records), nil
}

// schemaError reduces a jsonschema error to its first leaf cause.
func schemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ValidationError{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &ValidationError{
		Path:    strings.TrimPrefix(ve.InstanceLocation, "/"),
		Message: ve.Message,
	}
}
