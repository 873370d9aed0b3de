// Package errors provides centralized error definitions and error handling
// utilities for the stagehand codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - LockError: errors related to spec lock management
//   - SessionError: errors related to session records
//   - SceneError: errors related to scene lifecycle and binding
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//   - CorruptedError: persisted data could not be decoded
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewLockError("failed to write lock record", cause).WithSpecID("auth-api")
//	err := errors.NewValidationError("timeout", "-2", "must be positive")
//
// Checking errors:
//
//	if errors.IsNotFound(err) { ... }
//	var lockErr *errors.LockError
//	if errors.As(err, &lockErr) { ... }
//
// Sentinel errors for specific contracts live in the packages that own those
// contracts (for example the lock codec's invalid-metadata sentinel); this
// package holds only the shared taxonomy.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// General sentinel errors shared across subsystems.
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed indicates a general operation failure.
	ErrOperationFailed = New("operation failed")
	// ErrCorruptedData indicates that persisted data could not be decoded.
	ErrCorruptedData = New("corrupted data")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// StagehandError is the base interface for all stagehand errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type StagehandError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// LockError represents errors related to spec lock management.
//
// Example:
//
//	err := errors.NewLockError("failed to write lock record", cause)
//	err = err.WithSpecID("auth-api")
//	fmt.Println(err) // "lock error [spec=auth-api]: failed to write lock record: ..."
type LockError struct {
	baseError
	SpecID    string
	MachineID string
}

// NewLockError creates a new LockError.
func NewLockError(message string, cause error) *LockError {
	return &LockError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithSpecID adds a spec ID to the error context.
func (e *LockError) WithSpecID(id string) *LockError {
	e.SpecID = id
	return e
}

// WithMachineID adds the holder's machine ID to the error context.
func (e *LockError) WithMachineID(id string) *LockError {
	e.MachineID = id
	return e
}

// WithSeverity sets the error severity.
func (e *LockError) WithSeverity(s Severity) *LockError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *LockError) Error() string {
	var parts []string
	if e.SpecID != "" {
		parts = append(parts, fmt.Sprintf("spec=%s", e.SpecID))
	}
	if e.MachineID != "" {
		parts = append(parts, fmt.Sprintf("machine=%s", e.MachineID))
	}

	prefix := "lock error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("lock error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *LockError) Is(target error) bool {
	if _, ok := target.(*LockError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SessionError represents errors related to session records.
//
// Example:
//
//	err := errors.NewSessionError("failed to persist session", cause).WithSessionID("abc123")
type SessionError struct {
	baseError
	SessionID string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithSessionID adds a session ID to the error context.
func (e *SessionError) WithSessionID(id string) *SessionError {
	e.SessionID = id
	return e
}

// WithSeverity sets the error severity.
func (e *SessionError) WithSeverity(s Severity) *SessionError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	prefix := "session error"
	if e.SessionID != "" {
		prefix = fmt.Sprintf("session error [session=%s]", e.SessionID)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SessionError) Is(target error) bool {
	if _, ok := target.(*SessionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SceneError represents errors related to scene lifecycle and binding.
//
// Example:
//
//	err := errors.NewSceneError("cannot complete scene", cause).WithSceneID("nightly").WithCycle(3)
type SceneError struct {
	baseError
	SceneID string
	Cycle   int
}

// NewSceneError creates a new SceneError.
func NewSceneError(message string, cause error) *SceneError {
	return &SceneError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Cycle: -1, // -1 indicates not set
	}
}

// WithSceneID adds a scene ID to the error context.
func (e *SceneError) WithSceneID(id string) *SceneError {
	e.SceneID = id
	return e
}

// WithCycle adds a cycle number to the error context.
func (e *SceneError) WithCycle(cycle int) *SceneError {
	e.Cycle = cycle
	return e
}

// WithSeverity sets the error severity.
func (e *SceneError) WithSeverity(s Severity) *SceneError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *SceneError) Error() string {
	var parts []string
	if e.SceneID != "" {
		parts = append(parts, fmt.Sprintf("scene=%s", e.SceneID))
	}
	if e.Cycle >= 0 {
		parts = append(parts, fmt.Sprintf("cycle=%d", e.Cycle))
	}

	prefix := "scene error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("scene error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SceneError) Is(target error) bool {
	if _, ok := target.(*SceneError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError indicates that a requested resource does not exist.
type NotFoundError struct {
	baseError
	Resource string
	ID       string
}

// NewNotFoundError creates a new NotFoundError for the given resource and id.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s not found: %s", resource, id),
			severity:   SeverityWarning,
			userFacing: true,
		},
		Resource: resource,
		ID:       id,
	}
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError indicates that a resource already exists.
type AlreadyExistsError struct {
	baseError
	Resource string
	ID       string
}

// NewAlreadyExistsError creates a new AlreadyExistsError for the given resource and id.
func NewAlreadyExistsError(resource, id string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s already exists: %s", resource, id),
			severity:   SeverityWarning,
			userFacing: true,
		},
		Resource: resource,
		ID:       id,
	}
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError indicates that input validation failed. Validation errors
// are always rejected before any write touches storage.
type ValidationError struct {
	baseError
	Field  string
	Value  string
	Reason string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    fmt.Sprintf("validation failed for %s: %s", field, reason),
			cause:      ErrInvalidInput,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// CorruptedError indicates that persisted data could not be decoded.
type CorruptedError struct {
	baseError
	Path string
}

// NewCorruptedError creates a new CorruptedError for the file at path.
func NewCorruptedError(path string, cause error) *CorruptedError {
	return &CorruptedError{
		baseError: baseError{
			message:    fmt.Sprintf("corrupted data at %s", path),
			cause:      cause,
			severity:   SeverityCritical,
			userFacing: true,
		},
		Path: path,
	}
}

// Is checks if this error matches the target.
func (e *CorruptedError) Is(target error) bool {
	if _, ok := target.(*CorruptedError); ok {
		return true
	}
	if target == ErrCorruptedData {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return As(err, &nf)
}

// IsAlreadyExists reports whether err is or wraps an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return As(err, &ae)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return As(err, &ve)
}

// IsCorrupted reports whether err is or wraps a CorruptedError.
func IsCorrupted(err error) bool {
	var ce *CorruptedError
	return As(err, &ce)
}

// IsUserFacing reports whether err is safe to display to end users.
// Errors that don't implement StagehandError are considered internal.
func IsUserFacing(err error) bool {
	var se StagehandError
	if As(err, &se) {
		return se.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity of err, or SeverityError for errors
// that don't implement StagehandError.
func GetSeverity(err error) Severity {
	var se StagehandError
	if As(err, &se) {
		return se.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Wrapping Helpers
// -----------------------------------------------------------------------------

// Wrap wraps err with a message, preserving the original error for
// errors.Is/As checks. Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps err with a formatted message, preserving the original error
// for errors.Is/As checks. Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
