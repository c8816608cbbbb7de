package http

import (
	"net/http"

	apierrors "stockstats/internal/errors"
	"stockstats/internal/infrastructure"
)

// MetricsHandler exposes the Prometheus registry of the OTel meter provider
type MetricsHandler struct {
	exporter     http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. When metrics are disabled
// the endpoint answers 404.
func NewMetricsHandler(providers *infrastructure.OTelProviders, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	h := &MetricsHandler{errorHandler: errorHandler}
	if providers != nil {
		h.exporter = providers.PrometheusHTTP
	}
	return h
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.errorHandler.NotFound(w, r)
		return
	}
	h.exporter.ServeHTTP(w, r)
}
