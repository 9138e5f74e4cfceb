package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/reqid"
)

// accessEntry is filled in by inner middleware and written once the request
// finishes.
type accessEntry struct {
	user   string
	status int
	bytes  int
}

type accessKey struct{}

func entryFrom(ctx context.Context) *accessEntry {
	e, _ := ctx.Value(accessKey{}).(*accessEntry)
	return e
}

type loggingWriter struct {
	http.ResponseWriter
	e           *accessEntry
	wroteHeader bool
}

func (w *loggingWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.e.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.e.bytes += n
	return n, err
}

// Logger writes one access line per request and puts a request_id-tagged
// logger in the context for logger.WithCtx. Mount it after reqid.Middleware
// and before Authenticate, which adds the user to the line.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		e := &accessEntry{status: http.StatusOK}
		log := logger.L.With("request_id", reqid.FromCtx(r.Context()))

		ctx := context.WithValue(r.Context(), accessKey{}, e)
		ctx = logger.InjectLogger(ctx, log)
		r = r.WithContext(ctx)

		next.ServeHTTP(&loggingWriter{ResponseWriter: w, e: e}, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", e.status,
			"bytes", e.bytes,
			"duration", time.Since(start).String(),
			"ip", r.RemoteAddr,
		}
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			attrs = append(attrs, "route", rc.RoutePattern())
		}
		if e.user != "" {
			attrs = append(attrs, "user", e.user)
		}

		level := slog.LevelInfo
		switch {
		case e.status >= 500:
			level = slog.LevelError
		case r.URL.Path == "/metrics":
			level = slog.LevelDebug
		}
		log.Log(r.Context(), level, "request", attrs...)
	})
}
