package tick

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects loop counters. A nil *Metrics records nothing.
type Metrics struct {
	updates   prometheus.Counter
	frames    prometheus.Counter
	anomalies prometheus.Counter
	sleeps    prometheus.Counter
	elapsed   prometheus.Histogram
	catchUp   prometheus.Histogram
}

// NewMetrics registers the loop collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		updates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tick",
			Subsystem: "loop",
			Name:      "updates_total",
			Help:      "Fixed-step simulation updates executed",
		}),
		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tick",
			Subsystem: "loop",
			Name:      "frames_total",
			Help:      "Frames rendered and presented",
		}),
		anomalies: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tick",
			Subsystem: "loop",
			Name:      "timing_anomalies_total",
			Help:      "Ticks whose elapsed time was zero or above the anomaly threshold",
		}),
		sleeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tick",
			Subsystem: "loop",
			Name:      "throttle_sleeps_total",
			Help:      "Coarse sleeps taken while throttling to the target frame rate",
		}),
		elapsed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tick",
			Subsystem: "loop",
			Name:      "tick_elapsed_seconds",
			Help:      "Elapsed time observed per loop iteration",
			Buckets:   []float64{0.001, 0.004, 0.008, 0.0133, 0.0167, 0.0333, 0.05, 0.1, 0.25, 1},
		}),
		catchUp: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tick",
			Subsystem: "loop",
			Name:      "updates_per_frame",
			Help:      "Fixed-step updates drained per loop iteration",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
	}
}

func (m *Metrics) observeTick(elapsed float64) {
	if m == nil {
		return
	}
	m.elapsed.Observe(elapsed)
}

func (m *Metrics) observeFrame(updates int) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.updates.Add(float64(updates))
	m.catchUp.Observe(float64(updates))
}

func (m *Metrics) anomaly() {
	if m == nil {
		return
	}
	m.anomalies.Inc()
}

func (m *Metrics) sleep() {
	if m == nil {
		return
	}
	m.sleeps.Inc()
}
