package tree

import (
	"errors"
	"fmt"
)

// Outcome is the reason code returned alongside every mutation result.
type Outcome string

const (
	// Applied means the returned sequence differs from the input.
	Applied Outcome = "applied"

	// Unchanged means the request was valid but had no effect.
	Unchanged Outcome = "unchanged"

	// NotFound means the node (or the requested parent) does not exist.
	NotFound Outcome = "not-found"

	// CycleRejected means the reparent would make a node its own ancestor.
	CycleRejected Outcome = "cycle-rejected"

	// InvalidTitle means the title was empty after normalization.
	InvalidTitle Outcome = "invalid-title"
)

// Changed reports whether the mutation produced a new sequence.
func (o Outcome) Changed() bool {
	return o == Applied
}

// Rejected reports whether the mutation was refused.
func (o Outcome) Rejected() bool {
	switch o {
	case NotFound, CycleRejected, InvalidTitle:
		return true
	}
	return false
}

// Err converts a rejecting outcome into a *MutationError.
// Returns nil for Applied and Unchanged.
func (o Outcome) Err(op, id string) error {
	if !o.Rejected() {
		return nil
	}
	return &MutationError{Code: o, Op: op, ID: id}
}

// MutationError describes a refused mutation for callers that surface
// rejections as errors (CLI exit codes, HTTP statuses).
type MutationError struct {
	// Code is the rejecting outcome.
	Code Outcome

	// Op names the mutation ("add", "reparent", ...).
	Op string

	// ID is the node the mutation targeted.
	ID string
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.ID, e.Code)
}

// IsNotFound returns true if err is a not-found MutationError.
func IsNotFound(err error) bool {
	return hasCode(err, NotFound)
}

// IsCycle returns true if err is a cycle-rejected MutationError.
func IsCycle(err error) bool {
	return hasCode(err, CycleRejected)
}

// IsInvalid returns true if err is an invalid-title MutationError.
func IsInvalid(err error) bool {
	return hasCode(err, InvalidTitle)
}

func hasCode(err error, code Outcome) bool {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}
