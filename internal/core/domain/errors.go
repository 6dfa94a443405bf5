package domain

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
)

// Error is an application error that knows its HTTP status and remembers
// where it was raised.
type Error struct {
	Status  int
	Message string
	Err     error
	stack   []uintptr
}

// NewError builds an Error for status with a formatted message.
func NewError(status int, format string, args ...any) *Error {
	return &Error{
		Status:  status,
		Message: fmt.Sprintf(format, args...),
		stack:   callers(),
	}
}

// WrapError attaches a status to err, keeping it reachable via errors.Is/As.
func WrapError(status int, err error) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Status: status, Message: msg, Err: err, stack: callers()}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// StatusCode reports the HTTP status associated with the error.
func (e *Error) StatusCode() int { return e.Status }

// StackTrace renders the call stack captured at construction, one frame per
// line in "function\n\tfile:line" form.
func (e *Error) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func callers() []uintptr {
	pcs := make([]uintptr, 32)
	// skip runtime.Callers, callers and the constructor
	n := runtime.Callers(3, pcs)
	return pcs[:n]
}
