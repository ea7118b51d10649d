package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestEunoiaError_Error(t *testing.T) {
	err := &EunoiaError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "category not found: it",
	}

	expected := "NOT_FOUND: category not found: it"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("word is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "word is required" {
		t.Errorf("Message = %q, want %q", err.Message, "word is required")
	}
}

func TestNewBuiltIn(t *testing.T) {
	err := NewBuiltIn("category idiom")

	if err.Code != ErrBuiltIn {
		t.Errorf("Code = %q, want %q", err.Code, ErrBuiltIn)
	}
	if err.Status != 403 {
		t.Errorf("Status = %d, want 403", err.Status)
	}
	if err.Details["target"] != "category idiom" {
		t.Errorf("Details[target] = %v, want %q", err.Details["target"], "category idiom")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("category", "it_terms")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "it_terms" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "it_terms")
	}
	if err.Details["kind"] != "category" {
		t.Errorf("Details[kind] = %v, want %q", err.Details["kind"], "category")
	}
}

func TestNewAlreadyExists(t *testing.T) {
	err := NewAlreadyExists("category", "IT 용어")

	if err.Code != ErrAlreadyExists {
		t.Errorf("Code = %q, want %q", err.Code, ErrAlreadyExists)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Details["name"] != "IT 용어" {
		t.Errorf("Details[name] = %v, want %q", err.Details["name"], "IT 용어")
	}
}

func TestNewStorage(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewStorage("write history", cause)

	if err.Code != ErrStorage {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorage)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
	if err.Message != "write history failed: disk full" {
		t.Errorf("Message = %q", err.Message)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected NewStorage to wrap its cause")
	}
}

func TestNewStorage_NilCause(t *testing.T) {
	err := NewStorage("read ledger", nil)
	if err.Message != "read ledger failed" {
		t.Errorf("Message = %q, want %q", err.Message, "read ledger failed")
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("export")
	if err.Status != 499 {
		t.Errorf("Status = %d, want 499", err.Status)
	}
	if err.Message != "export cancelled" {
		t.Errorf("Message = %q, want %q", err.Message, "export cancelled")
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("database connection failed"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "database connection failed" {
			t.Errorf("Message = %q, want %q", err.Message, "database connection failed")
		}
	})

	t.Run("with nil error", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Message != "internal error" {
			t.Errorf("Message = %q, want %q", err.Message, "internal error")
		}
	})
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{
			name: "matching code",
			err:  NewNotFound("word", "x"),
			code: ErrNotFound,
			want: true,
		},
		{
			name: "non-matching code",
			err:  NewNotFound("word", "x"),
			code: ErrInvalidRequest,
			want: false,
		},
		{
			name: "wrapped error",
			err:  fmt.Errorf("load: %w", NewStorage("read", nil)),
			code: ErrStorage,
			want: true,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("some error"),
			code: ErrInternal,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			code: ErrInternal,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapStorage(t *testing.T) {
	if WrapStorage("read", nil) != nil {
		t.Error("WrapStorage(nil) should be nil")
	}

	plain := fmt.Errorf("disk full")
	wrapped := WrapStorage("write record", plain)
	if !Is(wrapped, ErrStorage) {
		t.Errorf("plain error should become STORAGE, got %v", wrapped)
	}
	if !stderrors.Is(wrapped, plain) {
		t.Error("wrapped error should unwrap to the cause")
	}

	notFound := NewNotFound("category", "x")
	if got := WrapStorage("read", notFound); got != error(notFound) {
		t.Errorf("coded error should pass through unchanged, got %v", got)
	}
}
