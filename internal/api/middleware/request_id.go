package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderRequestID is read from the request and echoed on the response.
	HeaderRequestID = "X-Request-ID"

	ContextKeyRequestID    = "request_id"
	ContextKeyRequestStart = "request_start"

	// fallbackRequestID is used when no random id can be produced.
	fallbackRequestID = "unknown"
)

type requestIDKey struct{}

// newRandomID is swapped in tests to simulate an exhausted entropy source.
var newRandomID = uuid.NewRandom

// RequestID resolves the correlation id for the request: a non-empty inbound
// X-Request-ID is trusted verbatim, otherwise a UUIDv4 is generated. The id is
// stored on the echo context, on the request context, and on the response
// header; the entry time is recorded for RequestLogger.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			id := req.Header.Get(HeaderRequestID)
			if id == "" {
				id = generateRequestID()
			}

			c.Set(ContextKeyRequestID, id)
			c.Set(ContextKeyRequestStart, start)
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), requestIDKey{}, id)))
			c.Response().Header().Set(HeaderRequestID, id)

			return next(c)
		}
	}
}

func generateRequestID() string {
	id, err := newRandomID()
	if err != nil {
		return fallbackRequestID
	}
	return id.String()
}

// RequestIDFrom returns the correlation id assigned by RequestID, or "" when
// the middleware did not run.
func RequestIDFrom(c echo.Context) string {
	id, _ := c.Get(ContextKeyRequestID).(string)
	return id
}

// RequestIDFromContext is the context.Context counterpart of RequestIDFrom,
// for code below the transport layer.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestStart returns the entry timestamp recorded by RequestID.
func requestStart(c echo.Context) (time.Time, bool) {
	start, ok := c.Get(ContextKeyRequestStart).(time.Time)
	return start, ok
}
