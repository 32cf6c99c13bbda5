package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsRegistersOnProvidedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRecordingStarted()
	m.RecordRecordingFinished("done", 4096)
	m.RecordCartSnapshot(2, 3, 250)
	m.RecordNotification("success")

	if got := testutil.ToFloat64(m.ActiveRecordings); got != 0 {
		t.Errorf("Expected 0 active recordings, got %v", got)
	}
	if got := testutil.ToFloat64(m.RecordingOutcomes.WithLabelValues("done")); got != 1 {
		t.Errorf("Expected 1 done outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.CartTotal); got != 250 {
		t.Errorf("Expected cart total 250, got %v", got)
	}

	// A second registry must accept a fresh set without duplicate registration
	NewMetrics(prometheus.NewRegistry())

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected gathered metric families")
	}
}
