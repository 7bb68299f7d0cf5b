// Package planner turns a goal title into a list of proposed steps using an
// external language model.
//
// The planner never touches the tree. A Client returns a validated *Plan or
// an *Error whose Kind tells the caller why it failed:
//
//   - KindUnavailable: the service could not be reached, timed out, was rate
//     limited, or the circuit breaker is open
//   - KindMalformed: the response was not a JSON plan
//   - KindInvalid: the plan parsed but failed validation
//
// Callers apply a plan with workspace.ApplyPlan, which adds every step or
// none of them.
package planner
