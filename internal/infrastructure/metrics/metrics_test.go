package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistryRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.JournalsPosted == nil || m.HTTPRequests == nil || m.StatementCacheHits == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.JournalsPosted.WithLabelValues("MANUAL").Inc()
	m.AmortizationsProcessed.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.JournalsPosted.WithLabelValues("MANUAL")); got != 1 {
		t.Errorf("journals posted = %v, want 1", got)
	}
}

func TestNewWithRegistryIsolated(t *testing.T) {
	// Separate registries must not collide on metric names.
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.LoanPayments.Inc()
	if got := testutil.ToFloat64(b.LoanPayments); got != 0 {
		t.Errorf("second registry saw %v payments", got)
	}
}
