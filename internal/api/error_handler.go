package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quietsummit/travel-api/internal/api/middleware"
	"github.com/quietsummit/travel-api/internal/core/domain"
)

const (
	defaultErrorMessage = "Internal Server Error"
	unknownRequestID    = "unknown"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
	Stack     string `json:"stack,omitempty"`
}

type statusCoder interface {
	StatusCode() int
}

type stackTracer interface {
	StackTrace() string
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Resolves the status from echo errors, domain errors or StatusCode(), defaulting to 500.
//   - Logs every failure with the request's correlation id.
//   - Renders {"success": false, "error": ..., "requestId": ...}; the stack is
//     added only when env is "development".
func NewHTTPErrorHandler(log zerolog.Logger, env string) echo.HTTPErrorHandler {
	exposeStack := env == "development"

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		stack := stackOf(err)

		requestID := middleware.RequestIDFrom(c)
		if requestID == "" {
			requestID = unknownRequestID
		}

		ev := log.Error()
		if code < http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("request_id", requestID).
			Str("error", msg).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", code)
		if stack != "" {
			ev = ev.Str("stack", stack)
		}
		ev.Msg("request failed")

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}

		body := errorResponse{Success: false, Error: msg, RequestID: requestID}
		if exposeStack {
			body.Stack = stack
		}
		if werr := c.JSON(code, body); werr != nil {
			log.Error().Err(werr).Str("request_id", requestID).Msg("failed to write error response")
		}
	}
}

func resolveError(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, defaultErrorMessage
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	var sc statusCoder
	switch {
	case errors.As(err, &he):
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprintf("%v", he.Message)
		}
	case errors.As(err, &sc):
		code = sc.StatusCode()
	case errors.Is(err, domain.ErrUserNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrUserExists):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		code = http.StatusForbidden
	}

	if code < 100 || code > 599 {
		code = http.StatusInternalServerError
	}
	if msg == "" {
		msg = defaultErrorMessage
	}
	return code, msg
}

func stackOf(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return ""
}
