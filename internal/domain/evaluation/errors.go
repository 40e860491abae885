package evaluation

import (
	"fmt"
	"strings"
)

// MissingField describes one missing or invalid required field in a form the
// UI can show directly.
type MissingField struct {
	Label string `json:"label"`
	Group string `json:"group,omitempty"`
}

func (f MissingField) String() string {
	if f.Group == "" {
		return f.Label
	}
	return f.Group + ": " + f.Label
}

// ValidationError is a local, synchronous failure: required fields or
// selectors are missing. It never reaches the network.
type ValidationError struct {
	Missing []MissingField
}

func (e *ValidationError) Error() string {
	const maxListed = 3
	labels := make([]string, 0, maxListed)
	for i, field := range e.Missing {
		if i == maxListed {
			break
		}
		labels = append(labels, field.String())
	}
	msg := fmt.Sprintf("%d required field(s) missing: %s", len(e.Missing), strings.Join(labels, ", "))
	if remainder := len(e.Missing) - maxListed; remainder > 0 {
		msg += fmt.Sprintf(" and %d more", remainder)
	}
	return msg
}

// GuardViolation is an attempt to drive the state machine outside its rules
// (wrong step, terminal instance, submission already in flight). Like
// ValidationError it blocks the action before any network call.
type GuardViolation struct {
	Reason string
}

func (e *GuardViolation) Error() string {
	return "workflow guard: " + e.Reason
}

// TransportError wraps a failed collaborator call. The state machine stays in
// its pre-transition state and the caller may retry the action.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConflictError carries a server-detected conflict, such as a duplicate
// submission of an already advanced evaluation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return "conflicting submission"
	}
	return e.Message
}
