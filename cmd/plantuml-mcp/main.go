package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"plantuml-go/internal/cache"
	"plantuml-go/internal/config"
	"plantuml-go/internal/logging"
	"plantuml-go/internal/metrics"
	"plantuml-go/internal/notify"
	"plantuml-go/internal/server"
	"plantuml-go/internal/shutdown"
	"plantuml-go/internal/tracing"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	transport := flag.String("transport", "stdio", "MCP transport: stdio or http")
	tracingEnabled := flag.Bool("tracing", false, "Enable OpenTelemetry tracing")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, "plantuml-mcp")
	slog.SetDefault(logger)

	ctx := context.Background()
	shutdownManager := shutdown.NewManager(cfg.ShutdownTimeout.Std())

	// Initialize tracing
	tracerCfg := tracing.DefaultTracerConfig()
	tracerCfg.Enabled = *tracingEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tracerCfg)
	if err != nil {
		slog.Error("failed to initialize tracing", "err", err)
		os.Exit(1)
	}
	shutdownManager.Add(tracerShutdown)

	// Initialize the render cache when configured
	var renderCache *cache.RenderCache
	if cfg.Cache.Addr != "" {
		renderCache, err = cache.New(ctx, cfg.Cache.Addr, cfg.Cache.TTL.Std())
		if err != nil {
			slog.Error("failed to connect to render cache", "err", err)
			os.Exit(1)
		}
		shutdownManager.Add(func(ctx context.Context) error {
			slog.Info("closing render cache")
			return renderCache.Close()
		})
	}

	srv := server.New(&server.Config{
		RendererURL:  cfg.PlantUMLServer,
		FetchTimeout: cfg.FetchTimeout.Std(),
		Cache:        renderCache,
		Notifier:     notify.NewNtfyClient(cfg.Ntfy.ServerURL, cfg.Ntfy.Topic),
	})

	slog.Info("starting PlantUML MCP server",
		"transport", *transport,
		"renderer", cfg.PlantUMLServer,
		"cache", cfg.Cache.Addr != "",
	)

	switch *transport {
	case "stdio":
		// Stdio shares the process with a single client; no metrics server.
		if err := srv.RunStdio(ctx); err != nil {
			slog.Error("stdio transport failed", "err", err)
			os.Exit(1)
		}

	case "http":
		metricsErrChan := make(chan error, 1)
		metricsServer := metrics.StartServer(cfg.MetricsPort, metricsErrChan)
		shutdownManager.Add(func(ctx context.Context) error {
			slog.Info("shutting down metrics server")
			return metricsServer.Shutdown(ctx)
		})

		httpServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           srv.HTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		httpErrChan := make(chan error, 1)
		go func() {
			slog.Info("MCP HTTP server starting", "port", cfg.Port)
			err := httpServer.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				httpErrChan <- err
			}
		}()
		shutdownManager.Add(func(ctx context.Context) error {
			slog.Info("shutting down MCP HTTP server")
			return httpServer.Shutdown(ctx)
		})

		go func() {
			select {
			case err := <-httpErrChan:
				slog.Error("MCP HTTP server error", "err", err)
				shutdownManager.Trigger()
			case err := <-metricsErrChan:
				slog.Error("metrics server error", "err", err)
				shutdownManager.Trigger()
			}
		}()

		shutdownManager.Wait()

	default:
		slog.Error("unknown transport", "transport", *transport)
		os.Exit(1)
	}
}
