package harness

import (
	"fmt"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int          `json:"seq"`
	Op      string       `json:"op"`
	ID      string       `json:"id,omitempty"`
	Outcome tree.Outcome `json:"outcome"`
}

func (e TraceEvent) String() string {
	if e.ID == "" {
		return fmt.Sprintf("[%d] %s -> %s", e.Seq, e.Op, e.Outcome)
	}
	return fmt.Sprintf("[%d] %s %s -> %s", e.Seq, e.Op, e.ID, e.Outcome)
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Final is the sequence after the last step.
	Final []tree.Node `json:"final"`

	// Digest identifies Final (snapshot.Digest).
	Digest string `json:"digest"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Final:  []tree.Node{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Outline returns the final sequence rendered by tree.Outline.
func (r *Result) Outline() string {
	return tree.OutlineString(r.Final)
}
