package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScanMetrics records outcomes of bounded catalog and reservation scans.
type ScanMetrics struct {
	duration        *prometheus.HistogramVec
	timeouts        *prometheus.CounterVec
	capHits         *prometheus.CounterVec
	decryptFailures *prometheus.CounterVec
	warningsCreated prometheus.Counter
}

// NewScanMetrics registers the scan metrics on the provided registerer.
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	if reg == nil {
		return &ScanMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scan_duration_seconds",
		Help:    "Duration of bounded scans in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scan"})
	timeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_timeouts_total",
		Help: "Scans that hit the wall-clock deadline.",
	}, []string{"scan"})
	capHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_cap_hits_total",
		Help: "Scans that stopped at the max-items-scanned cap.",
	}, []string{"scan"})
	decryptFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "record_decrypt_failures_total",
		Help: "Individual records skipped because decryption failed.",
	}, []string{"scan"})
	warningsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_warnings_created_total",
		Help: "Oversell warnings created by the warning engine.",
	})
	reg.MustRegister(duration, timeouts, capHits, decryptFailures, warningsCreated)
	return &ScanMetrics{
		duration:        duration,
		timeouts:        timeouts,
		capHits:         capHits,
		decryptFailures: decryptFailures,
		warningsCreated: warningsCreated,
	}
}

// ObserveDuration records the duration for the named scan.
func (m *ScanMetrics) ObserveDuration(scan string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(scan)).Observe(duration.Seconds())
}

// IncTimeout increments the deadline counter for the named scan.
func (m *ScanMetrics) IncTimeout(scan string) {
	if m == nil || m.timeouts == nil {
		return
	}
	m.timeouts.WithLabelValues(normalizeLabel(scan)).Inc()
}

// IncCapHit increments the scan-cap counter for the named scan.
func (m *ScanMetrics) IncCapHit(scan string) {
	if m == nil || m.capHits == nil {
		return
	}
	m.capHits.WithLabelValues(normalizeLabel(scan)).Inc()
}

// IncDecryptFailure counts a record skipped during the named scan.
func (m *ScanMetrics) IncDecryptFailure(scan string) {
	if m == nil || m.decryptFailures == nil {
		return
	}
	m.decryptFailures.WithLabelValues(normalizeLabel(scan)).Inc()
}

// IncWarningCreated counts a newly persisted oversell warning.
func (m *ScanMetrics) IncWarningCreated() {
	if m == nil || m.warningsCreated == nil {
		return
	}
	m.warningsCreated.Inc()
}

func normalizeLabel(scan string) string {
	if scan == "" {
		return "unknown"
	}
	return scan
}
