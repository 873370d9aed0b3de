package errors

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// LockError Tests
// -----------------------------------------------------------------------------

func TestNewLockError(t *testing.T) {
	cause := New("disk full")
	err := NewLockError("failed to write lock record", cause)

	if err.message != "failed to write lock record" {
		t.Errorf("message = %q, want %q", err.message, "failed to write lock record")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
}

func TestLockError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *LockError
		want string
	}{
		{
			name: "basic error",
			err:  NewLockError("write failed", nil),
			want: "lock error: write failed",
		},
		{
			name: "with spec id",
			err:  NewLockError("write failed", nil).WithSpecID("auth-api"),
			want: "lock error [spec=auth-api]: write failed",
		},
		{
			name: "with spec and machine",
			err:  NewLockError("write failed", nil).WithSpecID("auth-api").WithMachineID("m-1"),
			want: "lock error [spec=auth-api, machine=m-1]: write failed",
		},
		{
			name: "with cause",
			err:  NewLockError("write failed", New("disk full")).WithSpecID("auth-api"),
			want: "lock error [spec=auth-api]: write failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLockError_Is(t *testing.T) {
	cause := New("disk full")
	err := NewLockError("write failed", cause).WithSpecID("auth-api")

	if !Is(err, &LockError{}) {
		t.Error("Is(LockError{}) = false, want true")
	}
	if !Is(err, cause) {
		t.Error("Is(cause) = false, want true")
	}
	if Is(err, New("unrelated")) {
		t.Error("Is(unrelated) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// SessionError Tests
// -----------------------------------------------------------------------------

func TestSessionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SessionError
		want string
	}{
		{
			name: "basic error",
			err:  NewSessionError("persist failed", nil),
			want: "session error: persist failed",
		},
		{
			name: "with session id",
			err:  NewSessionError("persist failed", nil).WithSessionID("abc123"),
			want: "session error [session=abc123]: persist failed",
		},
		{
			name: "with session id and cause",
			err:  NewSessionError("persist failed", New("io error")).WithSessionID("xyz"),
			want: "session error [session=xyz]: persist failed: io error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// SceneError Tests
// -----------------------------------------------------------------------------

func TestSceneError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SceneError
		want string
	}{
		{
			name: "basic error",
			err:  NewSceneError("cannot complete", nil),
			want: "scene error: cannot complete",
		},
		{
			name: "with scene id",
			err:  NewSceneError("cannot complete", nil).WithSceneID("nightly"),
			want: "scene error [scene=nightly]: cannot complete",
		},
		{
			name: "with scene and cycle",
			err:  NewSceneError("cannot complete", nil).WithSceneID("nightly").WithCycle(3),
			want: "scene error [scene=nightly, cycle=3]: cannot complete",
		},
		{
			name: "cycle zero is shown",
			err:  NewSceneError("bad cycle", nil).WithCycle(0),
			want: "scene error [cycle=0]: bad cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("session", "abc123")

	want := "session not found: abc123"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false, want true")
	}
	if IsNotFound(New("other")) {
		t.Error("IsNotFound(other) = true, want false")
	}
}

func TestNotFoundError_Wrapped(t *testing.T) {
	inner := NewNotFoundError("scene", "nightly")
	wrapped := fmt.Errorf("resolving binding: %w", inner)

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound(wrapped) = false, want true")
	}

	var nf *NotFoundError
	if !As(wrapped, &nf) {
		t.Fatal("As(NotFoundError) = false, want true")
	}
	if nf.Resource != "scene" || nf.ID != "nightly" {
		t.Errorf("NotFoundError fields = %q/%q, want scene/nightly", nf.Resource, nf.ID)
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("session", "abc123")

	want := "session already exists: abc123"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsAlreadyExists(err) {
		t.Error("IsAlreadyExists() = false, want true")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("timeout", "-2", "must be positive")

	want := "validation failed for timeout: must be positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsValidation(err) {
		t.Error("IsValidation() = false, want true")
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
}

func TestCorruptedError(t *testing.T) {
	cause := New("unexpected end of JSON input")
	err := NewCorruptedError("/tmp/session.json", cause)

	if !IsCorrupted(err) {
		t.Error("IsCorrupted() = false, want true")
	}
	if !Is(err, ErrCorruptedData) {
		t.Error("Is(ErrCorruptedData) = false, want true")
	}
	if !Is(err, cause) {
		t.Error("Is(cause) = false, want true")
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsUserFacing(t *testing.T) {
	if !IsUserFacing(NewLockError("write failed", nil)) {
		t.Error("IsUserFacing(LockError) = false, want true")
	}
	if IsUserFacing(errors.New("internal detail")) {
		t.Error("IsUserFacing(plain error) = true, want false")
	}
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true, want false")
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"lock error", NewLockError("x", nil), SeverityError},
		{"corrupted error", NewCorruptedError("p", nil), SeverityCritical},
		{"validation error", NewValidationError("f", "v", "r"), SeverityWarning},
		{"plain error", errors.New("plain"), SeverityError},
		{"wrapped domain error", fmt.Errorf("outer: %w", NewCorruptedError("p", nil)), SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Wrapping Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	base := New("base error")
	wrapped := Wrap(base, "context")

	if wrapped.Error() != "context: base error" {
		t.Errorf("Wrap() = %q, want %q", wrapped.Error(), "context: base error")
	}
	if !Is(wrapped, base) {
		t.Error("Is(wrapped, base) = false, want true")
	}
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) != nil")
	}
}

func TestWrapf(t *testing.T) {
	base := New("base error")
	wrapped := Wrapf(base, "spec %s cycle %d", "auth-api", 2)

	want := "spec auth-api cycle 2: base error"
	if wrapped.Error() != want {
		t.Errorf("Wrapf() = %q, want %q", wrapped.Error(), want)
	}
	if !Is(wrapped, base) {
		t.Error("Is(wrapped, base) = false, want true")
	}
	if Wrapf(nil, "x") != nil {
		t.Error("Wrapf(nil) != nil")
	}
}
