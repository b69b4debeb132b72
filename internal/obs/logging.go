package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// NewLogger configures a zerolog logger using the provided format and level.
func NewLogger(format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stdout
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// RequestLogger writes one http_request line per request. Server errors log
// at error level and client errors at warn.
type RequestLogger struct {
	Logger zerolog.Logger
}

// Middleware implements chi middleware for structured request logs.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := NewStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r)

		status := recorder.Status()
		route := RoutePatternFromContext(r.Context())
		if route == "" {
			route = r.URL.Path
		}

		evt := l.Logger.WithLevel(levelForStatus(status)).
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int64("bytes", recorder.BytesWritten())
		for key, value := range requestFields(r) {
			evt = evt.Str(key, value)
		}
		if ct := recorder.Header().Get("Content-Type"); ct != "" {
			evt = evt.Str("content_type", ct)
		}
		evt.Msg("http_request")
	})
}

func levelForStatus(status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// requestFields collects the non-empty correlation fields of r.
func requestFields(r *http.Request) map[string]string {
	ctx := r.Context()
	fields := map[string]string{
		"request_id":  middleware.GetReqID(ctx),
		"host":        strings.TrimSpace(r.Host),
		"remote_addr": strings.TrimSpace(r.RemoteAddr),
		"user_agent":  strings.TrimSpace(r.UserAgent()),
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields["trace_id"] = spanCtx.TraceID().String()
		fields["span_id"] = spanCtx.SpanID().String()
	}
	if userID, ok := common.UserID(ctx); ok {
		fields["user_id"] = userID
	}
	for key, value := range fields {
		if value == "" {
			delete(fields, key)
		}
	}
	return fields
}

// ContextLogger stores a child of logger carrying the request id, trace id
// and authenticated user on the request context, for zerolog.Ctx. Mount it
// after authentication so the user id is known.
func ContextLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			fields := requestFields(r)
			lc := logger.With()
			for _, key := range []string{"request_id", "trace_id", "user_id"} {
				if value, ok := fields[key]; ok {
					lc = lc.Str(key, value)
				}
			}
			child := lc.Logger()
			next.ServeHTTP(w, r.WithContext(child.WithContext(ctx)))
		})
	}
}
