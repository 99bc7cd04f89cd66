// Package errors provides typed errors for report-publisher
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrConfig indicates a configuration error
	ErrConfig ErrorType = iota
	// ErrUpload indicates the report could not be published to storage
	ErrUpload
	// ErrAnnotate indicates the pull/merge request could not be annotated
	ErrAnnotate
	// ErrValidation indicates an input validation error
	ErrValidation
)

// Exit codes returned by the CLI for each error category.
const (
	ExitGeneric  = 1
	ExitConfig   = 2
	ExitUpload   = 3
	ExitAnnotate = 4
)

// PublishError is the base error type for all report-publisher errors
type PublishError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *PublishError) Error() string {
	msg := fmt.Sprintf("[%s] %s", errorTypeString(e.Type), e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *PublishError) Unwrap() error {
	return e.Cause
}

// New creates a new PublishError
func New(errType ErrorType, message string, cause error) *PublishError {
	return &PublishError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *PublishError) WithContext(key string, value interface{}) *PublishError {
	e.Context[key] = value
	return e
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var pubErr *PublishError
	if err == nil {
		return false
	}
	if errors.As(err, &pubErr) {
		return pubErr.Type == errType
	}
	return false
}

// ExitCode maps an error to the process exit code. The outermost
// PublishError decides. A ProviderError that reached the caller without
// one is a platform failure and exits with ExitAnnotate.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return ExitAnnotate
		}
		return ExitGeneric
	}
	switch pubErr.Type {
	case ErrConfig, ErrValidation:
		return ExitConfig
	case ErrUpload:
		return ExitUpload
	case ErrAnnotate:
		return ExitAnnotate
	default:
		return ExitGeneric
	}
}

func errorTypeString(et ErrorType) string {
	switch et {
	case ErrConfig:
		return "CONFIG"
	case ErrUpload:
		return "UPLOAD"
	case ErrAnnotate:
		return "ANNOTATE"
	case ErrValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}

// Convenience functions for common errors

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *PublishError {
	return New(ErrConfig, message, cause)
}

// UploadError creates a report upload error
func UploadError(message string, cause error) *PublishError {
	return New(ErrUpload, message, cause)
}

// AnnotateError creates an annotation error
func AnnotateError(message string, cause error) *PublishError {
	return New(ErrAnnotate, message, cause)
}

// ValidationError creates a validation error
func ValidationError(message string, cause error) *PublishError {
	return New(ErrValidation, message, cause)
}

// ProviderErrorKind classifies hosting platform failures.
type ProviderErrorKind string

const (
	KindAuth        ProviderErrorKind = "auth"
	KindNotFound    ProviderErrorKind = "not-found"
	KindRateLimited ProviderErrorKind = "rate-limited"
	KindNetwork     ProviderErrorKind = "network"
	KindUnknown     ProviderErrorKind = "unknown"
)

// ProviderError is returned by every platform adapter operation.
type ProviderError struct {
	Kind       ProviderErrorKind
	Provider   string
	Op         string
	Target     string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s on %s failed (%s", e.Provider, e.Op, e.Target, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(", status %d", e.StatusCode)
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KindFromStatus maps an HTTP status code to a ProviderErrorKind.
func KindFromStatus(status int) ProviderErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 404:
		return KindNotFound
	case status == 429:
		return KindRateLimited
	case status == 0:
		return KindNetwork
	default:
		return KindUnknown
	}
}

// IsKind reports whether err wraps a ProviderError of the given kind.
func IsKind(err error, kind ProviderErrorKind) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
