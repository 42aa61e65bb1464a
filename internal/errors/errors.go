// Package errors provides custom error types and utilities for tokenkeeper.
//
// This package provides error handling for:
// - Precondition failures (missing credential, missing tool, scope, access level)
// - GitLab API failures (HTTP and network)
// - Configuration errors
// - Multi-error handling
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error categories for tokenkeeper operations
var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNetwork       = errors.New("network error")
	ErrConfiguration = errors.New("configuration error")
	ErrAlreadyExists = errors.New("resource already exists")

	ErrMissingCredential       = errors.New("missing credential")
	ErrMissingTool             = errors.New("missing tool")
	ErrInsufficientScope       = errors.New("insufficient scope")
	ErrInsufficientAccessLevel = errors.New("insufficient access level")
	ErrAPIFailure              = errors.New("api failure")
	ErrLeaseHeld               = errors.New("lease held by another run")
	ErrWrongVariableWrite      = errors.New("wrong variable write for current state")
)

// MissingCredentialError is returned when no credential source yields a token
type MissingCredentialError struct {
	Sources []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("no access token found (checked: %s)", strings.Join(e.Sources, ", "))
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// NewMissingCredentialError creates a new missing credential error
func NewMissingCredentialError(sources []string) *MissingCredentialError {
	return &MissingCredentialError{Sources: sources}
}

// MissingToolError is returned when a required executable is not installed
type MissingToolError struct {
	Tool string
	Err  error
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("required tool '%s' not found in PATH", e.Tool)
}

func (e *MissingToolError) Unwrap() error {
	return e.Err
}

func (e *MissingToolError) Is(target error) bool {
	return target == ErrMissingTool
}

// NewMissingToolError creates a new missing tool error
func NewMissingToolError(tool string, err error) *MissingToolError {
	return &MissingToolError{Tool: tool, Err: err}
}

// InsufficientScopeError is returned when the acting credential lacks a scope
type InsufficientScopeError struct {
	Required string
	Granted  []string
}

func (e *InsufficientScopeError) Error() string {
	return fmt.Sprintf("access token is missing required scope '%s' (granted: %s)",
		e.Required, strings.Join(e.Granted, ", "))
}

func (e *InsufficientScopeError) Is(target error) bool {
	return target == ErrInsufficientScope
}

// NewInsufficientScopeError creates a new insufficient scope error
func NewInsufficientScopeError(required string, granted []string) *InsufficientScopeError {
	return &InsufficientScopeError{Required: required, Granted: granted}
}

// InsufficientAccessLevelError is returned when the acting user's project role is too low
type InsufficientAccessLevelError struct {
	Project  string
	Required int
	Actual   int
}

func (e *InsufficientAccessLevelError) Error() string {
	return fmt.Sprintf("access level %d on project '%s' is below required level %d (Maintainer)",
		e.Actual, e.Project, e.Required)
}

func (e *InsufficientAccessLevelError) Is(target error) bool {
	return target == ErrInsufficientAccessLevel
}

// NewInsufficientAccessLevelError creates a new insufficient access level error
func NewInsufficientAccessLevelError(project string, required, actual int) *InsufficientAccessLevelError {
	return &InsufficientAccessLevelError{Project: project, Required: required, Actual: actual}
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error in field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(field, value, message string, err error) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
}

// IsConfiguration checks if an error is configuration-related
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// HTTPError represents a non-2xx response from the GitLab API
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d %s %s: %s", e.StatusCode, e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d %s %s", e.StatusCode, e.Method, e.URL)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) Is(target error) bool {
	if target == ErrAPIFailure {
		return true
	}
	switch e.StatusCode {
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return target == ErrUnauthorized
	case http.StatusBadRequest:
		return target == ErrInvalidInput
	case http.StatusConflict:
		return target == ErrAlreadyExists
	default:
		return false
	}
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, method, url, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Method:     method,
		URL:        url,
		Message:    message,
	}
}

// IsHTTPStatus checks if an error represents a specific HTTP status
func IsHTTPStatus(err error, statusCode int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == statusCode
	}
	return false
}

// NetworkError represents a transport failure before any response was read
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork || target == ErrAPIFailure
}

// NewNetworkError creates a new network error
func NewNetworkError(method, url string, err error) *NetworkError {
	return &NetworkError{Method: method, URL: url, Err: err}
}

// MultiError represents multiple errors that occurred together
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// NewMultiError creates a new multi-error from a slice of errors
func NewMultiError(errs []error) *MultiError {
	var filteredErrors []error
	for _, err := range errs {
		if err != nil {
			filteredErrors = append(filteredErrors, err)
		}
	}
	return &MultiError{Errors: filteredErrors}
}

// IsNotFound checks if an error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if an error represents an authorization failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNetwork checks if an error is network-related
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsPrecondition reports whether err is one of the fatal precondition failures
// that must stop a run before any mutation.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrMissingTool) ||
		errors.Is(err, ErrInsufficientScope) ||
		errors.Is(err, ErrInsufficientAccessLevel)
}
