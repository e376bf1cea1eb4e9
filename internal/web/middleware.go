package web

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/ppiankov/cspdemo/internal/csp"
	"github.com/ppiankov/cspdemo/internal/metrics"
	"github.com/ppiankov/cspdemo/internal/telemetry"
)

// statusWriter is a wrapper around http.ResponseWriter that stores the status
// code written to the response.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// logRequests logs each request once it has been served.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)))
	})
}

// recoverPanics recovers from handler panics, logging the stack and
// answering 500.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				slog.Error("panic in handler",
					slog.Any("panic", p),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// instrument records request metrics and the CSP decision on the active
// span. It must wrap the CSP middleware and the mux directly so the route
// pattern set by the mux is visible after next returns.
func instrument(c *metrics.Collector, p *csp.Policy, next http.Handler) http.Handler {
	mode := p.Mode()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		header := ""
		for _, name := range []string{csp.HeaderEnforce, csp.HeaderReportOnly} {
			if w.Header().Get(name) != "" {
				header = name
				break
			}
		}
		telemetry.Annotate(r.Context(), mode, header)
		if c == nil {
			return
		}
		if header != "" {
			c.PolicyHeader(header)
		}
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		c.ObserveRequest(route, sw.status, time.Since(start))
	})
}
