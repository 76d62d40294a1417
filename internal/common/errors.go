package common

import (
	"errors"
	"fmt"
)

// Recoverable per-document / per-case failures. One bad document must never
// abort the batch; callers log these with file context and move on.
var (
	// ErrMalformedTabularOutput: the LLM's extraction response could not be
	// parsed as a table even after both repair passes.
	ErrMalformedTabularOutput = errors.New("malformed tabular output")

	// ErrSourceUnreadable: the source PDF cannot be opened or has zero
	// extractable pages.
	ErrSourceUnreadable = errors.New("source document unreadable")

	// ErrIncompleteCaseData: a case identifier has rows from only one of the
	// two document types required for the merged output.
	ErrIncompleteCaseData = errors.New("incomplete case data")

	ErrInvalidInput = errors.New("invalid input")
)

// AppError carries a stable code alongside the message for places where the
// ledger records a failure class.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
