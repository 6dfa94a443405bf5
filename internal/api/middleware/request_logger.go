package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quietsummit/travel-api/internal/api/metrics"
)

// RequestLogger emits one record when a request enters the pipeline and one
// when its response is first committed. A sub-logger carrying request_id is
// attached to the request context so zerolog.Ctx works downstream.
//
// Must run after RequestID.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reqLog := log.With().Str("request_id", RequestIDFrom(c)).Logger()
			c.SetRequest(req.WithContext(reqLog.WithContext(req.Context())))

			method := req.Method
			path := req.URL.Path

			reqLog.Info().
				Str("method", method).
				Str("path", path).
				Str("ip", c.RealIP()).
				Str("user_agent", req.UserAgent()).
				Msg("request started")

			res := c.Response()
			cw := &commitWriter{ResponseWriter: res.Writer}
			cw.onCommit = func(status int) {
				logCompletion(c, reqLog, method, path, status)
			}
			res.Writer = cw

			err := next(c)
			if err != nil {
				// Render the error in-chain so the completion record sees its status.
				c.Error(err)
			}

			status := res.Status
			if status == 0 {
				status = http.StatusOK
			}
			cw.commit(status)

			return err
		}
	}
}

func logCompletion(c echo.Context, log zerolog.Logger, method, path string, status int) {
	var elapsed time.Duration
	if start, ok := requestStart(c); ok {
		elapsed = time.Since(start)
	}

	ev := log.Info()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Str("method", method).
		Str("path", path).
		Int("status", status).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("request completed")

	route := c.Path()
	if route == "" {
		route = "unmatched"
	}
	metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// commitWriter observes, but never alters, the response stream. onCommit
// fires once, on the first WriteHeader or Write.
type commitWriter struct {
	http.ResponseWriter
	once     sync.Once
	onCommit func(status int)
}

func (w *commitWriter) commit(status int) {
	w.once.Do(func() {
		if w.onCommit != nil {
			w.onCommit(status)
		}
	})
}

func (w *commitWriter) WriteHeader(code int) {
	w.commit(code)
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.commit(http.StatusOK)
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
