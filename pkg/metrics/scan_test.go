package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestScanMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewScanMetrics(reg)

	m.IncTimeout("search")
	m.IncTimeout("search")
	m.IncCapHit("search")
	m.IncDecryptFailure("warnings")
	m.IncWarningCreated()
	m.ObserveDuration("search", 50*time.Millisecond)

	if got := testutil.ToFloat64(m.timeouts.WithLabelValues("search")); got != 2 {
		t.Errorf("timeouts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.capHits.WithLabelValues("search")); got != 1 {
		t.Errorf("cap hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.decryptFailures.WithLabelValues("warnings")); got != 1 {
		t.Errorf("decrypt failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.warningsCreated); got != 1 {
		t.Errorf("warnings created = %v, want 1", got)
	}
	if count := testutil.CollectAndCount(m.duration); count != 1 {
		t.Errorf("duration series = %d, want 1", count)
	}
}

func TestScanMetricsNilSafe(t *testing.T) {
	var m *ScanMetrics
	m.IncTimeout("search")
	m.IncCapHit("search")
	m.IncDecryptFailure("search")
	m.IncWarningCreated()
	m.ObserveDuration("search", time.Second)

	unregistered := NewScanMetrics(nil)
	unregistered.IncTimeout("search")
	unregistered.ObserveDuration("search", time.Second)
}

func TestScanMetricsLabelFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewScanMetrics(reg)

	m.IncTimeout("")
	if got := testutil.ToFloat64(m.timeouts.WithLabelValues("unknown")); got != 1 {
		t.Errorf("empty scan name must land on the unknown label, got %v", got)
	}
}
