package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes ledger counters to Prometheus.
type Metrics struct {
	Marks      *prometheus.CounterVec
	Rejections *prometheus.CounterVec
	Students   prometheus.Gauge
	Records    prometheus.Gauge
}

// New registers the ledger collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classroll",
			Name:      "marks_total",
			Help:      "Successful check-ins by punctuality.",
		}, []string{"status"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classroll",
			Name:      "mark_rejections_total",
			Help:      "Refused check-ins by reason.",
		}, []string{"reason"}),
		Students: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "classroll",
			Name:      "students",
			Help:      "Students in the directory.",
		}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "classroll",
			Name:      "records",
			Help:      "Attendance records in the log.",
		}),
	}
	reg.MustRegister(m.Marks, m.Rejections, m.Students, m.Records)
	return m
}

// ObserveSizes updates the directory and log gauges.
func (m *Metrics) ObserveSizes(students, records int) {
	if m == nil {
		return
	}
	m.Students.Set(float64(students))
	m.Records.Set(float64(records))
}

// Marked counts a successful check-in.
func (m *Metrics) Marked(status string) {
	if m == nil {
		return
	}
	m.Marks.WithLabelValues(status).Inc()
}

// Rejected counts a refused check-in.
func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}
