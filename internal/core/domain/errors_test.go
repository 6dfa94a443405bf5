package domain

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestNewError_StatusAndMessage(t *testing.T) {
	err := NewError(http.StatusTeapot, "journey %s is full", "j-1")
	if err.StatusCode() != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", err.StatusCode())
	}
	if err.Error() != "journey j-1 is full" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestNewError_CapturesCaller(t *testing.T) {
	err := NewError(http.StatusBadRequest, "bad")
	stack := err.StackTrace()
	if !strings.Contains(stack, "TestNewError_CapturesCaller") {
		t.Fatalf("expected stack to name the calling test, got:\n%s", stack)
	}
}

func TestWrapError_Unwraps(t *testing.T) {
	err := WrapError(http.StatusNotFound, ErrUserNotFound)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatal("expected wrapped sentinel to match errors.Is")
	}
	if err.Error() != ErrUserNotFound.Error() {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
