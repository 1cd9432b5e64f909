package chair

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts seat lifecycle transitions. A nil *Metrics records nothing.
type Metrics struct {
	spawned  prometheus.Counter
	tornDown *prometheus.CounterVec
	rejected *prometheus.CounterVec
	swept    prometheus.Counter
	active   prometheus.Gauge
}

// NewMetrics creates the chair metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		spawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chairs",
			Name:      "seats_spawned_total",
			Help:      "Seat entities spawned with a rider attached.",
		}),
		tornDown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chairs",
			Name:      "seats_torn_down_total",
			Help:      "Seats scheduled for removal, by reason.",
		}, []string{"reason"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chairs",
			Name:      "requests_rejected_total",
			Help:      "Chair clicks that did not schedule a seat, by failed check or outcome.",
		}, []string{"reason"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chairs",
			Name:      "orphans_swept_total",
			Help:      "Leftover seat entities removed by the startup sweep.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chairs",
			Name:      "seats_active",
			Help:      "Seats currently tracked by the manager.",
		}),
	}
	reg.MustRegister(m.spawned, m.tornDown, m.rejected, m.swept, m.active)
	return m
}

func (m *Metrics) seatSpawned() {
	if m == nil {
		return
	}
	m.spawned.Inc()
	m.active.Inc()
}

func (m *Metrics) seatTornDown(reason TeardownReason, tracked bool) {
	if m == nil {
		return
	}
	m.tornDown.WithLabelValues(string(reason)).Inc()
	if tracked {
		m.active.Dec()
	}
}

func (m *Metrics) requestRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) orphansSwept(n int) {
	if m == nil {
		return
	}
	m.swept.Add(float64(n))
}

func (m *Metrics) seatDropped() {
	if m == nil {
		return
	}
	m.active.Dec()
}
