package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Marked("On Time")
	m.Marked("On Time")
	m.Marked("Late")
	m.Rejected("already_marked")
	m.ObserveSizes(4, 3)

	if got := testutil.ToFloat64(m.Marks.WithLabelValues("On Time")); got != 2 {
		t.Errorf("expected 2 on-time marks, got %v", got)
	}
	if got := testutil.ToFloat64(m.Rejections.WithLabelValues("already_marked")); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.Students); got != 4 {
		t.Errorf("expected 4 students, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Marked("Late")
	m.Rejected("x")
	m.ObserveSizes(1, 1)
}
