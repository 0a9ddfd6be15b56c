package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized is returned when a bearer token cannot be resolved
var ErrUnauthorized = errors.New("unauthorized")

// Reason classifies a ValidationError
type Reason string

const (
	ReasonMissingUser   Reason = "missing_user"
	ReasonUnknownAction Reason = "unknown_action"
	ReasonInvalidColor  Reason = "invalid_color"
)

// ValidationError rejects a request before any mutation happens
type ValidationError struct {
	Reason  Reason
	Message string
}

func NewValidationError(reason Reason, msg string) *ValidationError {
	return &ValidationError{Reason: reason, Message: msg}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Reason, e.Message)
}

// IsReason reports whether err is a ValidationError with the given reason
func IsReason(err error, reason Reason) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Reason == reason
}

// RateLimitError is returned while an action is cooling down
type RateLimitError struct {
	Action     ActionKind
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s is cooling down, retry after %s", e.Action, e.RetryAfter)
}

// UpstreamError wraps failures of the store, identity or points providers
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
