// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Dataset errors.
	ErrNotFound       = errors.New("not found")
	ErrRunNotStarted  = errors.New("run not started")
	ErrDatasetCorrupt = errors.New("dataset corrupted")

	// Ruleset errors.
	ErrPatchNotFound = errors.New("patch fragment not found in ruleset")

	// Classification errors.
	ErrNoMessages           = errors.New("no messages to classify")
	ErrClassificationFailed = errors.New("classification failed")
	ErrUnknownCategory      = errors.New("unknown routing category")

	// Approval errors.
	ErrApprovalChannel = errors.New("approval channel failed")
	ErrInputCancelled  = errors.New("input cancelled")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RuleRepairFailedError reports that the rule repairer exhausted its attempt
// budget without producing an applicable edit. LastFragment is the final
// fragment the editor proposed, kept for diagnostics.
type RuleRepairFailedError struct {
	LastFragment string
	Attempts     int
}

func (e *RuleRepairFailedError) Error() string {
	return fmt.Sprintf("rule repair failed after %d attempts (last fragment: %q)", e.Attempts, e.LastFragment)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
