package model

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ClassificationError reports a router label outside the closed set.
type ClassificationError struct {
	Raw     string
	Message string
}

func (e *ClassificationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (classification %q)", e.Message, e.Raw)
	}
	return fmt.Sprintf("invalid classification %q", e.Raw)
}

// DispatchError reports a handler failure captured by the router.
type DispatchError struct {
	Message string
}

func (e *DispatchError) Error() string {
	return e.Message
}

// CapabilityError wraps a failure of an external capability such as
// completion, search or document analysis.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s capability failed: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// NewCapabilityError wraps err unless it is nil.
func NewCapabilityError(capability string, err error) error {
	if err == nil {
		return nil
	}
	return &CapabilityError{Capability: capability, Err: err}
}

// PersistenceError wraps a conversation store failure.
type PersistenceError struct {
	Op             string
	ConversationID string
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("conversation store %s %q: %v", e.Op, e.ConversationID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
