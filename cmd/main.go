package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/perfboard/internal/adapters/http/api"
	"github.com/okian/perfboard/internal/adapters/http/swagger"
	"github.com/okian/perfboard/internal/adapters/upstream"
	app "github.com/okian/perfboard/internal/app"
	"github.com/okian/perfboard/internal/config"
	"github.com/okian/perfboard/internal/session"
	"github.com/okian/perfboard/pkg/logger"
	"github.com/okian/perfboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// run serves the API until ctx is canceled.
func run(ctx context.Context, cfg *config.Config) error {
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts, err := metricsOptions(cfg)
	if err != nil {
		return err
	}
	m := metrics.Configure(opts...)

	handler, svc, err := buildHandler(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Stop()

	if m.Enabled() {
		go startSystemMetricsUpdater(ctx, m.RefreshInterval())
		go startServiceMetricsUpdater(ctx, svc, m.RefreshInterval())
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("upstream", cfg.UpstreamBaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// metricsOptions maps the metrics_* settings onto the metrics manager.
func metricsOptions(cfg *config.Config) ([]metrics.Option, error) {
	buckets, err := cfg.LatencyBuckets()
	if err != nil {
		return nil, err
	}
	labels, err := cfg.ConstLabels()
	if err != nil {
		return nil, err
	}
	return []metrics.Option{
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.MetricsRefreshInterval),
		metrics.WithNames(cfg.MetricsNamespace, cfg.MetricsSubsystem),
		metrics.WithLatencyBuckets(buckets...),
		metrics.WithConstLabels(labels),
	}, nil
}

// buildHandler wires the upstream client, the report service and the HTTP
// routes. The returned service is started; the caller stops it.
func buildHandler(ctx context.Context, cfg *config.Config) (http.Handler, *app.Service, error) {
	client, err := upstream.New(cfg.UpstreamBaseURL,
		upstream.WithTimeout(cfg.UpstreamTimeout),
		upstream.WithPageSize(cfg.PageSize),
		upstream.WithMaxPages(cfg.MaxPages),
		upstream.WithConcurrency(cfg.FetchConcurrency),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("upstream client: %w", err)
	}

	svc := app.New(client,
		app.WithLogger(logger.Named("service")),
		app.WithStrictRollover(cfg.StrictISORollover),
		app.WithReportRoles(cfg.Roles()...),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start service: %w", err)
	}

	router := api.NewRouter(logger.Named("http"))

	// Register API docs under /api-docs and /openapi.yaml
	swagger.Register(ctx, router)

	apiServer := api.NewServer(svc, svc,
		api.WithFallbackSession(session.Static(cfg.UpstreamToken, session.ParseRole(cfg.UpstreamRole))),
		api.WithReportRoles(cfg.Roles()...),
	)
	apiServer.Register(ctx, router)

	return router, svc, nil
}

// startSystemMetricsUpdater updates system metrics every interval until ctx
// is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges every interval until
// ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateServiceMetrics samples the service counters. GetStats also sets the
// in-flight view gauge.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats()
	logger.Get().Debug(ctx, "service stats",
		logger.Any("reports_built", stats["reportsBuilt"]),
		logger.Any("reports_failed", stats["reportsFailed"]),
		logger.Any("views_in_flight", stats["viewsInFlight"]),
	)
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var lastPause time.Duration
	if m.NumGC > 0 {
		lastPause = time.Duration(m.PauseNs[(m.NumGC+255)%256])
	}
	metrics.UpdateSystem(m.HeapAlloc, runtime.NumGoroutine(), lastPause)
}
