// Package errors defines the error taxonomy shared by the tracker commands.
// Callers check categories with errors.Is against the sentinels below.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound indicates that a file, worksheet or remote resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed user input (arguments, ids, columns).
	ErrInvalidInput = errors.New("invalid input")

	// ErrParse indicates that a file could not be decoded.
	ErrParse = errors.New("parse error")

	// ErrRateLimited indicates a rate-limit or quota response that may succeed on retry.
	ErrRateLimited = errors.New("rate limited")
)

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string, err error) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id, Err: err}
}

// ParseError reports a decoding failure for a named input.
type ParseError struct {
	Format string
	Path   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// NewParseError creates a ParseError.
func NewParseError(format, path string, err error) *ParseError {
	return &ParseError{Format: format, Path: path, Err: err}
}

// ValidationError reports invalid input for a field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
	}
	return "invalid input: " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents a failed call to a remote API.
type APIError struct {
	Service    string
	StatusCode int
	Reason     string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Service, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is maps 429, quota-flavoured 403 and quota messages to ErrRateLimited,
// and 404 to ErrNotFound.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.rateLimited()
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func (e *APIError) rateLimited() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	text := strings.ToLower(e.Reason + " " + e.Message)
	if strings.Contains(text, "quota") {
		return true
	}
	if e.StatusCode != http.StatusForbidden {
		return false
	}
	return strings.Contains(text, "ratelimit") || strings.Contains(text, "rate limit")
}

// ConfigError represents invalid or missing configuration.
type ConfigError struct {
	Setting string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Setting, e.Message)
	}
	return "configuration error: " + e.Message
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidInput }

// NewConfigError creates a ConfigError.
func NewConfigError(setting, message string, err error) *ConfigError {
	return &ConfigError{Setting: setting, Message: message, Err: err}
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsRateLimited reports whether err is a retryable rate-limit or quota error.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "quota")
}
