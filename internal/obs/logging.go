package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// NewLogger builds the process logger. Format "console" or "text" switches to
// human-readable output; anything else logs JSON. Unknown levels mean info.
func NewLogger(format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
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

// RequestLogger writes one structured line per request. Server errors log at
// error level and client errors at warn.
type RequestLogger struct {
	Logger zerolog.Logger
	// Skip suppresses lines for matching requests, e.g. health checks and scrapes.
	Skip func(*http.Request) bool
}

// Middleware implements chi middleware for structured request logs.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := NewStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r)
		if l.Skip != nil && l.Skip(r) {
			return
		}

		status := recorder.Status()
		evt := l.Logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = l.Logger.Error()
		case status >= http.StatusBadRequest:
			evt = l.Logger.Warn()
		}

		route := routePattern(r)
		if route == "" {
			route = r.URL.Path
		}
		evt = evt.
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int64("bytes", recorder.BytesWritten()).
			Str("request_id", middleware.GetReqID(r.Context()))
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			evt = evt.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		}
		if docID := documentID(r); docID != "" {
			evt = evt.Str("document_id", docID)
		}
		if ip := strings.TrimSpace(r.RemoteAddr); ip != "" {
			evt = evt.Str("remote_addr", ip)
		}
		if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
			evt = evt.Str("user_agent", ua)
		}
		evt.Msg("http_request")
	})
}

// SkipOperational matches health checks and metric scrapes.
func SkipOperational(r *http.Request) bool {
	p := r.URL.Path
	return p == "/metrics" || strings.HasPrefix(p, "/health")
}

// documentID reads the {id} URL parameter once routing has completed.
func documentID(r *http.Request) string {
	if id := RouteInfoFromContext(r.Context()).DocumentID(); id != "" {
		return id
	}
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return ""
	}
	return strings.TrimSpace(rc.URLParam("id"))
}
