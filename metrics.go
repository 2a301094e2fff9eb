package redlock

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultAcquired  = "acquired"
	resultContended = "contended"
	resultReleased  = "released"
	resultLost      = "lost"
	resultError     = "error"
)

// metrics is nil when collection is disabled; every method tolerates that.
type metrics struct {
	acquire      *prometheus.CounterVec
	release      *prometheus.CounterVec
	spinAttempts prometheus.Counter
	storeLatency *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		acquire: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redlock_acquire_total",
			Help: "Total number of lock acquisition attempts by result",
		}, []string{"result"}),
		release: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redlock_release_total",
			Help: "Total number of lock releases by result",
		}, []string{"result"}),
		spinAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redlock_spin_attempts_total",
			Help: "Total number of acquisition attempts made by Spin",
		}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "redlock_store_latency_seconds",
			Help:    "Latency of store operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(m.acquire, m.release, m.spinAttempts, m.storeLatency)
	return m
}

func (m *metrics) acquired(result string) {
	if m == nil {
		return
	}
	m.acquire.WithLabelValues(result).Inc()
}

func (m *metrics) released(result string) {
	if m == nil {
		return
	}
	m.release.WithLabelValues(result).Inc()
}

func (m *metrics) spinAttempt() {
	if m == nil {
		return
	}
	m.spinAttempts.Inc()
}

func (m *metrics) observeStore(op string, start time.Time) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
