package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
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

// Pipeline error taxonomy. Every one of these is recovered inside the pipeline;
// none is returned by the public Generate/GenerateBatch entry points.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrCompletion    = errors.New("completion failed")
	ErrValidation    = errors.New("validation failed")
	ErrImage         = errors.New("image acquisition failed")
	ErrTranslation   = errors.New("translation failed")
	ErrBatchItem     = errors.New("batch item failed")
	ErrInvalidInput  = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CompletionError wraps a completion-stage failure so callers can match ErrCompletion.
func CompletionError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrCompletion
	} else if !errors.Is(cause, ErrCompletion) {
		cause = fmt.Errorf("%w: %w", ErrCompletion, cause)
	}
	return NewAppError("COMPLETION_ERROR", message, cause)
}

// ConfigurationError reports a missing or invalid service credential.
func ConfigurationError(message string) *AppError {
	return NewAppError("CONFIG_ERROR", message, ErrConfiguration)
}

// ErrorCode returns the AppError code carried by err, or "" when err is not an AppError.
func ErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
