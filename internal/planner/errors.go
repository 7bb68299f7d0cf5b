package planner

import (
	"errors"
	"fmt"
)

// Kind classifies planner failures.
type Kind string

const (
	// KindUnavailable means the planning service could not produce a response.
	KindUnavailable Kind = "unavailable"

	// KindMalformed means the response could not be parsed as a plan.
	KindMalformed Kind = "malformed"

	// KindInvalid means the plan parsed but failed validation.
	KindInvalid Kind = "invalid"
)

// Error is returned by Client.Plan for every failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("planner %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnavailable returns true if err is a planner Error of KindUnavailable.
func IsUnavailable(err error) bool {
	return hasKind(err, KindUnavailable)
}

// IsMalformed returns true if err is a planner Error of KindMalformed.
func IsMalformed(err error) bool {
	return hasKind(err, KindMalformed)
}

// IsInvalid returns true if err is a planner Error of KindInvalid.
func IsInvalid(err error) bool {
	return hasKind(err, KindInvalid)
}

// KindOf returns the Kind of a planner Error, or "" for other errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func hasKind(err error, k Kind) bool {
	return KindOf(err) == k
}

func unavailable(err error) *Error {
	return &Error{Kind: KindUnavailable, Err: err}
}

func malformed(err error) *Error {
	return &Error{Kind: KindMalformed, Err: err}
}

func invalid(err error) *Error {
	return &Error{Kind: KindInvalid, Err: err}
}
