package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionUnavailable is matched by every PersistenceError.
// Adapters report it to callers as "session unavailable, retry later".
var ErrSessionUnavailable = errors.New("session unavailable")

// ErrInternal is the generic failure surfaced to callers for engine defects.
var ErrInternal = errors.New("internal error")

// ErrSessionExists is returned when Start is asked to reuse a stored session id.
var ErrSessionExists = errors.New("session already exists")

// ErrInvalidInput marks caller input that was rejected before reaching the graph.
var ErrInvalidInput = errors.New("invalid input")

// ErrMalformedResponse marks a collaborator reply that could not be decoded.
var ErrMalformedResponse = errors.New("malformed collaborator response")

// GraphValidationError lists every structural problem found while building a graph.
type GraphValidationError struct {
	Problems []string
}

func (e *GraphValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid graph: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid graph: %d problems:\n  - %s", len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

// RoutingError is raised when a router yields an outcome its edge does not map.
// Graph validation makes this unreachable; seeing it means a programming defect.
type RoutingError struct {
	Node    string
	Router  string
	Outcome string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("router %q on node %q returned unmapped outcome %q", e.Router, e.Node, e.Outcome)
}

// Is lets callers match routing defects against ErrInternal.
func (e *RoutingError) Is(target error) bool {
	return target == ErrInternal
}

// CallFailure classifies why an external call attempt failed.
type CallFailure string

const (
	FailureTimeout   CallFailure = "timeout"
	FailureMalformed CallFailure = "malformed"
	FailureCanceled  CallFailure = "canceled"
	FailureOther     CallFailure = "failed"
)

// ExternalCallError describes one failed attempt against a Classifier or Generator.
type ExternalCallError struct {
	Op      string
	Attempt int
	Kind    CallFailure
	Err     error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("%s attempt %d %s: %v", e.Op, e.Attempt, e.Kind, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a checkpoint read or write failure.
type PersistenceError struct {
	Op        string // "load" or "save"
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("checkpoint %s for session %q: %v", e.Op, e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports every persistence failure as ErrSessionUnavailable.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrSessionUnavailable
}
