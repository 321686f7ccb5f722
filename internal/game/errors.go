// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// ErrUnrecoverable is reported when both the reconnect and the fresh join failed.
var ErrUnrecoverable = errors.New("session could not be recovered")

// ValidationError is a locally detected problem with a user intent (bad meld, card not in hand).
// It is never sent to the authority.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validationf builds a ValidationError with a formatted reason.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TurnViolation is an action attempted in the wrong turn state. The action is suppressed.
type TurnViolation struct {
	Action string
	State  TurnState
	Reason string
}

func (e *TurnViolation) Error() string { return e.Reason }

// ProtocolError is a rejection reported by the authority (join refused, turn error, wallet error).
type ProtocolError struct {
	Event    string
	Message  string
	Code     string
	Terminal bool
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server rejected request (%s)", e.Event)
	}
	return e.Message
}

// TransportError wraps a connection-level failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
