package session

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed input. It is returned
// before any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a store failure. The engine keeps the session in
// memory in its pre-call state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Code identifies why an operation was rejected.
type Code string

const (
	CodeTerminal       Code = "SESSION_TERMINAL"
	CodeNotStarted     Code = "SESSION_NOT_STARTED"
	CodeAlreadyStarted Code = "SESSION_ALREADY_STARTED"
	CodeNotResting     Code = "NOT_RESTING"
	CodeNotInProgress  Code = "NOT_IN_PROGRESS"
	CodeOutOfRange     Code = "CURSOR_OUT_OF_RANGE"
	CodeAtStart        Code = "CURSOR_AT_START"
	CodeAlreadyPaused  Code = "ALREADY_PAUSED"
	CodeNotPaused      Code = "NOT_PAUSED"
)

// Rejection describes an operation that was not applied because the engine
// was in the wrong state or the cursor could not move. Rejected operations
// change nothing.
type Rejection struct {
	Op      string `json:"op"`
	Code    Code   `json:"code"`
	State   State  `json:"state"`
	Message string `json:"message"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s rejected in state %s: %s (%s)", r.Op, r.State, r.Message, r.Code)
}

// ErrAlreadyActive is returned by Registry.Open when the session or its
// client already has an open engine.
var ErrAlreadyActive = errors.New("session already active")
