// Package httpapi wires the public router: platform middleware first, then
// the per-feature handlers, plus the operational endpoints.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vouch/internal/platform/metrics"
	"vouch/internal/platform/middleware"
)

// FeatureHandler is implemented by each feature's HTTP handler.
type FeatureHandler interface {
	Register(r chi.Router)
}

// NewRouter builds the full router. All feature routes require a valid
// bearer token; /healthz and /metrics stay open for probes and scrapers.
func NewRouter(
	logger *slog.Logger,
	m *metrics.Metrics,
	validator middleware.TokenValidator,
	features ...FeatureHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(validator, logger))
		for _, f := range features {
			f.Register(authed)
		}
	})

	return r
}
