package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// GateMetrics tracks issuance and administration activity for dashboards.
type GateMetrics struct {
	mints         *prometheus.CounterVec
	batchSkips    prometheus.Counter
	adminChanges  *prometheus.CounterVec
	configUpdates *prometheus.CounterVec
	uriUpdates    prometheus.Counter
	totalIssued   prometheus.Gauge
}

var (
	gateOnce     sync.Once
	gateRegistry *GateMetrics
)

// Gate returns the metrics registry for the mint gate.
func Gate() *GateMetrics {
	gateOnce.Do(func() {
		gateRegistry = &GateMetrics{
			mints: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mintgate",
				Name:      "mints_total",
				Help:      "Count of completed issuances segmented by path.",
			}, []string{"path"}),
			batchSkips: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "mintgate",
				Name:      "batch_skips_total",
				Help:      "Count of batch entries skipped because the address already minted.",
			}),
			adminChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mintgate",
				Name:      "admin_changes_total",
				Help:      "Count of admin set mutations segmented by action.",
			}, []string{"action"}),
			configUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mintgate",
				Name:      "config_updates_total",
				Help:      "Count of issuance parameter changes segmented by field.",
			}, []string{"field"}),
			uriUpdates: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "mintgate",
				Name:      "uri_updates_total",
				Help:      "Count of token URI prefix updates.",
			}),
			totalIssued: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "mintgate",
				Name:      "total_issued",
				Help:      "Aggregate quantity issued across all addresses.",
			}),
		}
		prometheus.MustRegister(
			gateRegistry.mints,
			gateRegistry.batchSkips,
			gateRegistry.adminChanges,
			gateRegistry.configUpdates,
			gateRegistry.uriUpdates,
			gateRegistry.totalIssued,
		)
	})
	return gateRegistry
}

// ObserveMint increments the mint counter for the supplied path.
func (m *GateMetrics) ObserveMint(path string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(path)
	if normalized == "" {
		normalized = "unknown"
	}
	m.mints.WithLabelValues(normalized).Inc()
}

// ObserveBatchSkip records a batch entry skipped for having minted already.
func (m *GateMetrics) ObserveBatchSkip() {
	if m == nil {
		return
	}
	m.batchSkips.Inc()
}

// ObserveAdminChange records an admin set mutation.
func (m *GateMetrics) ObserveAdminChange(action string) {
	if m == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	m.adminChanges.WithLabelValues(action).Inc()
}

// ObserveConfigUpdate records an issuance parameter change.
func (m *GateMetrics) ObserveConfigUpdate(field string) {
	if m == nil {
		return
	}
	if field == "" {
		field = "unknown"
	}
	m.configUpdates.WithLabelValues(field).Inc()
}

// ObserveURIUpdate records a token URI prefix change.
func (m *GateMetrics) ObserveURIUpdate() {
	if m == nil {
		return
	}
	m.uriUpdates.Inc()
}

// SetTotalIssued mirrors the aggregate issuance counter into the gauge.
func (m *GateMetrics) SetTotalIssued(total float64) {
	if m == nil {
		return
	}
	m.totalIssued.Set(total)
}
