// Package observability provides metrics and monitoring capabilities for the
// devserve asset server.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akoskinen/devserve/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	FSAccess *metrics.FSAccessMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any collector fails to register.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	fsAccessMetrics, err := metrics.NewFSAccessMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create FS access metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		FSAccess: fsAccessMetrics,
	}, nil
}

// Handler returns an http.Handler exposing the registry in the Prometheus
// text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
