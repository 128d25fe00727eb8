// Package metrics provides Prometheus collectors for the asset server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FSAccessMetrics contains Prometheus metrics for the filesystem access
// boundary.
type FSAccessMetrics struct {
	requestsAllowed *prometheus.CounterVec
	requestsDenied  *prometheus.CounterVec
	aliasRewrites   prometheus.Counter
	escapeRequests  prometheus.Counter
}

// NewFSAccessMetrics creates and registers new filesystem access metrics
func NewFSAccessMetrics(registry *prometheus.Registry) (*FSAccessMetrics, error) {
	m := &FSAccessMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *FSAccessMetrics) initMetrics() {
	m.requestsAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fs_requests_allowed_total",
			Help: "Total number of requests allowed by the filesystem access boundary",
		},
		[]string{"route"}, // route: static, fs
	)

	m.requestsDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fs_requests_denied_total",
			Help: "Total number of requests denied by the filesystem access boundary",
		},
		[]string{"route", "outcome"}, // outcome: forbidden, passthrough
	)

	m.aliasRewrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fs_alias_rewrites_total",
			Help: "Total number of requests rewritten by an alias rule",
		},
	)

	m.escapeRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fs_escape_requests_total",
			Help: "Total number of requests using the filesystem escape prefix",
		},
	)
}

// RecordAllowed increments the allowed counter for a route
func (m *FSAccessMetrics) RecordAllowed(route string) {
	m.requestsAllowed.WithLabelValues(route).Inc()
}

// RecordDenied increments the denied counter for a route and outcome
func (m *FSAccessMetrics) RecordDenied(route, outcome string) {
	m.requestsDenied.WithLabelValues(route, outcome).Inc()
}

// RecordAliasRewrite increments the alias rewrite counter
func (m *FSAccessMetrics) RecordAliasRewrite() {
	m.aliasRewrites.Inc()
}

// RecordEscapeRequest increments the escape request counter
func (m *FSAccessMetrics) RecordEscapeRequest() {
	m.escapeRequests.Inc()
}

// getCollectors returns all collectors in order for Describe/Collect operations
func (m *FSAccessMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requestsAllowed,
		m.requestsDenied,
		m.aliasRewrites,
		m.escapeRequests,
	}
}

// Describe implements the Collector interface
func (m *FSAccessMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *FSAccessMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}
