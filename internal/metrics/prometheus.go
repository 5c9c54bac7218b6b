package metrics

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RendersTotal counts diagram renders by output format and outcome.
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantuml_renders_total",
			Help: "Total number of diagram renders.",
		},
		[]string{"format", "status"},
	)

	// RenderDurationSeconds is a histogram for the full render path
	// (prepare, encode, cache, fetch).
	RenderDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plantuml_render_duration_seconds",
			Help:    "Duration of diagram renders in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RendererRequestDuration is a histogram for individual HTTP requests to
	// the PlantUML server.
	RendererRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plantuml_renderer_request_duration_seconds",
			Help:    "Duration of HTTP requests to the PlantUML server in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// EncodedTokenBytes tracks the size of encoded diagram tokens.
	EncodedTokenBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plantuml_encoded_token_bytes",
			Help:    "Size of encoded diagram tokens in bytes.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
	)

	// CacheRequestsTotal counts render-cache lookups by result (hit, miss, error).
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantuml_cache_requests_total",
			Help: "Total number of render cache lookups.",
		},
		[]string{"result"},
	)
)

// StartServer starts the Prometheus metrics HTTP server. It returns the
// server instance for graceful shutdown support.
func StartServer(port int, errChan chan<- error) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		slog.Info("metrics server starting", "port", port)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed to start", "err", err)
			errChan <- err
		}
	}()

	return server
}
