package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// DefaultSlowRequest is the latency above which a request logs at warn level.
const DefaultSlowRequest = 2 * time.Second

// LoggingMiddleware writes one access log line per request.
type LoggingMiddleware struct {
	logger zerolog.Logger
	slow   time.Duration
}

// NewLoggingMiddleware creates a new LoggingMiddleware.
func NewLoggingMiddleware(logger zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger, slow: DefaultSlowRequest}
}

// Wrap logs after next returns. 5xx answers log at error level, slow ones at
// warn level.
func (m *LoggingMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		status := responseStatus(ww)

		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = m.logger.Error()
		case elapsed > m.slow:
			event = m.logger.Warn()
		default:
			event = m.logger.Info()
		}

		event.
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", routePattern(r)).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Str("remote_addr", r.RemoteAddr).
			Msg("request completed")
	})
}

// responseStatus treats a handler that never wrote as 200.
func responseStatus(ww chimiddleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
