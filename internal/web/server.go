package web

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/cspdemo/internal/csp"
	"github.com/ppiankov/cspdemo/internal/metrics"
)

// HandlerParams contains the parameters for creating the demo HTTP handler.
type HandlerParams struct {
	Policy *csp.Policy

	// Optional.
	Metrics        *metrics.Collector
	MetricsPath    string
	MetricsHandler http.Handler
	TracerProvider trace.TracerProvider
}

// NewHandler builds the demo mux and wraps it so the policy decision runs
// once per request, before any route handler writes a body.
func NewHandler(p *HandlerParams) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", PageHandler(PageHome, p.Policy))
	mux.HandleFunc("GET /checkout", PageHandler(PageCheckout, p.Policy))
	mux.HandleFunc("GET /profile", PageHandler(PageProfile, p.Policy))
	mux.Handle("GET /public/", PublicHandler())
	mux.HandleFunc("GET /healthz", HealthzHandler())
	mux.HandleFunc("GET /api/v1/policy", PolicyHandler(p.Policy))
	if p.MetricsHandler != nil && p.MetricsPath != "" {
		mux.Handle("GET "+p.MetricsPath, p.MetricsHandler)
	}

	var h http.Handler = csp.Middleware(p.Policy)(mux)
	h = instrument(p.Metrics, p.Policy, h)

	var otelOpts []otelhttp.Option
	if p.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(p.TracerProvider))
	}
	h = otelhttp.NewHandler(h, "cspdemo.http", otelOpts...)

	return recoverPanics(logRequests(h))
}
