// Package app is the dashboard gateway: filtered lists, rollups, exports
// and analytics over HTTP and gRPC, served from the catalog snapshot.
package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/farmfuture/internal/catalog"
	"github.com/LeonardoBeccarini/farmfuture/internal/services/telemetry"
)

type Config struct {
	HTTPTimeout time.Duration

	// Optional collaborators; nil disables the related endpoints or checks.
	History  *telemetry.History
	Health   *telemetry.Health
	Upstream *catalog.Upstream

	Registry *prometheus.Registry
	Logger   *zap.Logger
}

type Gateway struct {
	cfg     Config
	store   *catalog.Store
	log     *zap.Logger
	metrics *httpMetrics
}

func NewGateway(cfg Config, store *catalog.Store) *Gateway {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 5 * time.Second
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	return &Gateway{
		cfg:     cfg,
		store:   store,
		log:     cfg.Logger,
		metrics: newHTTPMetrics(cfg.Registry),
	}
}

// Routes returns the HTTP handler with all middleware applied.
func (g *Gateway) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", g.HandleHealth)
	mux.HandleFunc("GET /readyz", g.HandleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(g.cfg.Registry, promhttp.HandlerOpts{Registry: g.cfg.Registry}))

	mux.HandleFunc("GET /api/v1/analytics/device-performance", g.HandleDevicePerformance)
	mux.HandleFunc("GET /api/v1/{entity}", g.HandleList)
	mux.HandleFunc("GET /api/v1/{entity}/summary", g.HandleSummary)
	mux.HandleFunc("GET /api/v1/{entity}/export", g.HandleExport)

	return withRequestID(g.accessLog(g.metrics.instrument(mux)))
}
