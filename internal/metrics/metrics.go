// Package metrics exposes Prometheus collectors for the RPC server and the
// ledger pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dangi"

// Metrics holds every collector the server records into.
type Metrics struct {
	registry *prometheus.Registry

	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	SummaryCache    *prometheus.CounterVec
	LedgerEvents    *prometheus.CounterVec
	SettlementsSize prometheus.Histogram
}

// New registers a fresh set of collectors on a private registry, plus the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and Connect code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		SummaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_cache_total",
			Help:      "Project summary cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		LedgerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_events_total",
			Help:      "Ledger change events by direction and result.",
		}, []string{"direction", "result"}),
		SettlementsSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggested_transfers",
			Help:      "Number of transfers suggested per summary.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RPCRequests,
		m.RPCDuration,
		m.SummaryCache,
		m.LedgerEvents,
		m.SettlementsSize,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CacheResult counts one summary cache lookup. Nil receivers are ignored so
// callers can run without metrics.
func (m *Metrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.SummaryCache.WithLabelValues(result).Inc()
}

// LedgerEvent counts one published or consumed ledger event.
func (m *Metrics) LedgerEvent(direction, result string) {
	if m == nil {
		return
	}
	m.LedgerEvents.WithLabelValues(direction, result).Inc()
}

// ObserveTransfers records how many transfers a summary suggested.
func (m *Metrics) ObserveTransfers(n int) {
	if m == nil {
		return
	}
	m.SettlementsSize.Observe(float64(n))
}
