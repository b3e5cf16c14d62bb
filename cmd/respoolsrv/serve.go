package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/respool/internal/demoresource"
	"github.com/haasonsaas/respool/internal/infra"
	obs "github.com/haasonsaas/respool/internal/obs"
	"github.com/haasonsaas/respool/internal/poolconfig"
	"github.com/haasonsaas/respool/respool"
)

func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the respoolsrv demo server",
		Long: `Run a pool of dialed TCP connections behind an HTTP surface.

The server exposes:
  /metrics  - Prometheus metrics for pool occupancy and acquire latency
  /healthz  - liveness/readiness JSON report

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = defaultConfigPath()
			}
			return runServe(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML/JSON5 configuration file")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := poolconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting respoolsrv",
		"config", configPath,
		"max_connections", cfg.Pool.MaxConnections,
		"dial_target", cfg.Dial.Target,
	)

	metrics := obs.NewMetrics()
	tracer, shutdownTracer := obs.NewTracer(obs.TraceConfig{
		ServiceName: "respoolsrv",
		Endpoint:    cfg.Server.OTLPEndpoint,
	})

	factory := demoresource.NewFactory(demoresource.DialerConfig{
		Target:      cfg.Dial.Target,
		DialTimeout: cfg.Dial.Timeout.Duration,
		Retry:       infra.DefaultRetryConfig(),
		Logger:      slog.Default(),
	})

	pool := respool.NewWithHooks(respool.Options{
		MaxConnections:      cfg.Pool.MaxConnections,
		AcquireTimeout:      cfg.Pool.AcquireTimeout.Duration,
		IdleTimeout:         cfg.Pool.IdleTimeout.Duration,
		MaxLifetime:         cfg.Pool.MaxLifetime.Duration,
		HealthCheckInterval: cfg.Pool.HealthCheckInterval.Duration,
	}, respool.Hooks[*demoresource.Conn]{
		AfterCreate: func(ctx context.Context, r *demoresource.Conn, meta respool.Metadata) error {
			metrics.RecordResourceCreated()
			return nil
		},
	})

	healthReg := infra.NewHealthCheckRegistry()
	healthReg.RegisterPoolHealth("pool", func() infra.PoolOccupancy {
		stats := pool.Stats()
		return infra.PoolOccupancy{Idle: stats.Idle, Max: stats.Max, Closed: stats.Closed}
	})

	httpSrv := &demoHTTPServer{}

	watchCtx, watchCancel := context.WithCancel(ctx)
	watcher, watcherCancel, err := poolconfig.NewWatcher(watchCtx, configPath, slog.Default())
	if err != nil {
		watchCancel()
		slog.Warn("config hot-reload disabled", "error", err)
	} else {
		go watchConfigReloads(watchCtx, watcher)
	}

	if err := httpSrv.start(cfg.Server.ListenAddr, cfg.Server.MetricsAddr, healthReg, pool); err != nil {
		if watcherCancel != nil {
			watcherCancel()
		}
		watchCancel()
		return fmt.Errorf("start http server: %w", err)
	}

	acquireLoopCtx, cancelAcquireLoop := context.WithCancel(ctx)
	go runDemoAcquireLoop(acquireLoopCtx, pool, factory, tracer, metrics)

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	<-sigCtx.Done()
	slog.Info("shutdown signal received, draining respoolsrv")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Stop feeding the pool new traffic before anything downstream of it
	// is torn down, then work outward: HTTP surface, the pool itself
	// (which fails pending acquires and closes its idle resources; release
	// pipelines already in flight are not awaited), and finally the
	// config watcher and tracer exporter that have no dependents left.
	cancelAcquireLoop()

	if err := httpSrv.stop(shutdownCtx); err != nil {
		slog.Warn("http server shutdown reported an error", "error", err)
	}

	pool.Close(shutdownCtx)

	if watcherCancel != nil {
		watcherCancel()
	}
	watchCancel()

	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Warn("tracer shutdown reported an error", "error", err)
	}

	slog.Info("respoolsrv stopped gracefully")
	return nil
}

// runDemoAcquireLoop repeatedly checks out and releases a connection so the
// pool has ongoing traffic to report through metrics and /healthz.
func runDemoAcquireLoop(ctx context.Context, pool *respool.Pool[*demoresource.Conn], factory respool.Factory[*demoresource.Conn], tracer *obs.Tracer, metrics *obs.Metrics) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			acquireCtx, span := tracer.StartAcquire(ctx)
			start := time.Now()

			handle, err := pool.Acquire(acquireCtx, factory)
			if err != nil {
				metrics.RecordAcquire("error", time.Since(start))
				tracer.RecordError(span, err)
				span.End()
				continue
			}
			metrics.RecordAcquire("success", time.Since(start))
			span.End()

			stats := pool.Stats()
			metrics.ObservePoolStats(obs.PoolStats{Idle: stats.Idle, Max: stats.Max, Closed: stats.Closed})

			handle.Release()
		}
	}
}

func watchConfigReloads(ctx context.Context, w *poolconfig.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-w.Updates():
			if !ok {
				return
			}
			// Options are immutable once a Pool is constructed, and the
			// factory was built from the startup config, so a reload here
			// is only logged: neither the pool nor the dial settings pick
			// up the new values until the server is restarted.
			slog.Info("config reloaded",
				"max_connections", cfg.Pool.MaxConnections,
				"dial_target", cfg.Dial.Target)
		}
	}
}

// demoHTTPServer holds the *http.Servers between runServe's start and
// stop calls. Metrics are served on a
// dedicated listener when metricsAddr differs from addr, so a Prometheus
// scraper can be firewalled off from the health/diagnostic surface.
type demoHTTPServer struct {
	server        *http.Server
	metricsServer *http.Server
}

func (h *demoHTTPServer) start(addr, metricsAddr string, healthReg *infra.HealthCheckRegistry, pool *respool.Pool[*demoresource.Conn]) error {
	healthzHandler := func(w http.ResponseWriter, r *http.Request) {
		report := healthReg.CheckAll(r.Context())
		stats := pool.Stats()

		w.Header().Set("Content-Type", "application/json")
		if report.Status != infra.ServiceHealthHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(struct {
			Status string        `json:"status"`
			Pool   respool.Stats `json:"pool"`
		}{Status: string(report.Status), Pool: stats})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler)

	separateMetrics := metricsAddr != "" && metricsAddr != addr
	if !separateMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	server, err := listenAndServe(addr, mux)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	h.server = server

	if separateMetrics {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsServer, err := listenAndServe(metricsAddr, metricsMux)
		if err != nil {
			_ = server.Close()
			return fmt.Errorf("metrics listen: %w", err)
		}
		h.metricsServer = metricsServer
		slog.Info("metrics server listening", "addr", metricsAddr)
	}

	slog.Info("http server listening", "addr", addr)
	return nil
}

func listenAndServe(addr string, mux *http.ServeMux) (*http.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:              listener.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "addr", addr, "error", err)
		}
	}()

	return server, nil
}

func (h *demoHTTPServer) stop(ctx context.Context) error {
	var err error
	if h.server != nil {
		err = h.server.Shutdown(ctx)
	}
	if h.metricsServer != nil {
		if mErr := h.metricsServer.Shutdown(ctx); mErr != nil && err == nil {
			err = mErr
		}
	}
	return err
}
