package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ppiankov/cspdemo/internal/config"
	"github.com/ppiankov/cspdemo/internal/metrics"
	"github.com/ppiankov/cspdemo/internal/telemetry"
	"github.com/ppiankov/cspdemo/internal/web"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the demo server",
	Long: `Start the demo HTTP server.

Every response carries the configured policy header, or none when the policy
is disabled.

Endpoints:
  /                 Home page
  /checkout         Loads third-party scripts plus one disallowed script
  /profile          Loads third-party scripts, all allowed
  /public/*         First-party scripts
  /healthz          Liveness probe
  /api/v1/policy    JSON description of the active policy
  /metrics          Prometheus scrape endpoint

Environment:
  ENABLE_APP_CSP    "false" disables the policy header (default on)
  REPORT_ONLY       "false" enforces the policy (default Report-Only)
  PORT              listen on 0.0.0.0:$PORT`,
	Example: `  # Report-Only on port 3000
  cspdemo serve

  # Enforce the policy
  REPORT_ONLY=false cspdemo serve

  # Leave CSP to an edge proxy
  ENABLE_APP_CSP=false cspdemo serve --listen :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to config file")
	serveCmd.Flags().String("listen", "", "Listen address (overrides config and PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	listenFlag, _ := cmd.Flags().GetString("listen") //nolint:errcheck // flag registered above
	if listenFlag != "" {
		cfg.ListenAddr = listenFlag
	}

	srv, shutdownTracer, err := newServer(cmd, cfg)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background()) //nolint:errcheck // best-effort flush

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srvErr := make(chan error, 1)
	go func() {
		slog.Info("cspdemo serve listening", "version", version, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
	case err := <-srvErr:
		return err
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newServer wires the policy, metrics and tracing into an http.Server.
func newServer(cmd *cobra.Command, cfg *config.Config) (*http.Server, func(context.Context) error, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}
	attrs := []any{"mode", policy.Mode()}
	if name, value, ok := policy.Header(); ok {
		attrs = append(attrs, "header", name, "value", value)
	}
	slog.Info("content security policy", attrs...)

	otelEndpoint, _ := cmd.Flags().GetString("otel-endpoint") //nolint:errcheck // flag registered above
	tp, tracerShutdown, err := telemetry.InitTracer(context.Background(), otelEndpoint, "cspdemo", version)
	if err != nil {
		slog.Warn("initializing tracer", "err", err)
		tp, tracerShutdown = nil, func(context.Context) error { return nil }
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)
	collector.SetPolicy(policy)

	handler := web.NewHandler(&web.HandlerParams{
		Policy:         policy,
		Metrics:        collector,
		MetricsPath:    cfg.MetricsPath,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		TracerProvider: tp,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return srv, tracerShutdown, nil
}
