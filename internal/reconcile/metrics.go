package reconcile

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts reconcile activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	writes     *prometheus.CounterVec
	reloads    prometheus.Counter
}

// NewMetrics builds the collectors and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lawcode",
			Subsystem: "reconcile",
			Name:      "operations_total",
			Help:      "Drag operations by plan kind.",
		}, []string{"kind"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lawcode",
			Subsystem: "reconcile",
			Name:      "writes_total",
			Help:      "Chapter persistence calls by result.",
		}, []string{"result"}),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lawcode",
			Subsystem: "reconcile",
			Name:      "reloads_total",
			Help:      "Full tree reloads triggered by persistence failures.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.writes, m.reloads)
	}
	return m
}

func (m *Metrics) operation(kind PlanKind) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) write(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.writes.WithLabelValues(result).Inc()
}

func (m *Metrics) reload() {
	if m == nil {
		return
	}
	m.reloads.Inc()
}
