package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Discover call outcomes
const (
	OutcomeCached    = "cached"
	OutcomeScanned   = "scanned"
	OutcomeCancelled = "cancelled"
	OutcomeDisposed  = "disposed"
	OutcomeError     = "error"
)

// Metrics holds all Prometheus metrics for plugin discovery
type Metrics struct {
	// Discovery metrics
	DiscoverCallsTotal    *prometheus.CounterVec
	CandidateScansTotal   *prometheus.CounterVec
	CandidateScanDuration prometheus.Histogram
	InventorySize         prometheus.Gauge

	// Plugin file metrics
	PluginFileStatesTotal *prometheus.CounterVec

	// Verifier cache metrics
	VerifierCacheHitsTotal   prometheus.Counter
	VerifierCacheMissesTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		DiscoverCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spoke_plugin_discover_calls_total",
				Help: "Total number of plugin discovery calls",
			},
			[]string{"outcome"},
		),
		CandidateScansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spoke_plugin_candidate_scans_total",
				Help: "Total number of candidate path resolutions",
			},
			[]string{"source", "status"},
		),
		CandidateScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spoke_plugin_candidate_scan_duration_seconds",
				Help:    "Candidate path resolution duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		InventorySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spoke_plugin_inventory_size",
				Help: "Number of plugin files in the cached inventory",
			},
		),
		PluginFileStatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spoke_plugin_file_states_total",
				Help: "Total number of evaluated plugin file states",
			},
			[]string{"state"},
		),
		VerifierCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spoke_plugin_verifier_cache_hits_total",
				Help: "Total number of signature verifier cache hits",
			},
		),
		VerifierCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spoke_plugin_verifier_cache_misses_total",
				Help: "Total number of signature verifier cache misses",
			},
		),
	}

	registry.MustRegister(
		m.DiscoverCallsTotal,
		m.CandidateScansTotal,
		m.CandidateScanDuration,
		m.InventorySize,
		m.PluginFileStatesTotal,
		m.VerifierCacheHitsTotal,
		m.VerifierCacheMissesTotal,
	)

	return m
}

// RecordDiscover counts a discovery call. Safe on a nil receiver.
func (m *Metrics) RecordDiscover(outcome string) {
	if m == nil {
		return
	}
	m.DiscoverCallsTotal.WithLabelValues(outcome).Inc()
}

// RecordScan records one candidate resolution
func (m *Metrics) RecordScan(source, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CandidateScansTotal.WithLabelValues(source, status).Inc()
	m.CandidateScanDuration.Observe(duration.Seconds())
}

// SetInventorySize sets the size of the cached inventory
func (m *Metrics) SetInventorySize(n int) {
	if m == nil {
		return
	}
	m.InventorySize.Set(float64(n))
}

// RecordPluginFileState counts an evaluated plugin file state
func (m *Metrics) RecordPluginFileState(state string) {
	if m == nil {
		return
	}
	m.PluginFileStatesTotal.WithLabelValues(state).Inc()
}

// RecordVerifierCache counts a verifier cache lookup
func (m *Metrics) RecordVerifierCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.VerifierCacheHitsTotal.Inc()
		return
	}
	m.VerifierCacheMissesTotal.Inc()
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
