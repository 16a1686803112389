// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Run metrics collector. Counters and the latency histogram live in a private
// Prometheus registry and are filled once per finished run, never from the
// message hot path. A free-form snapshot map is kept for ad-hoc values.

package control

import (
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "mpsc"

// RunSample is the outcome of one finished run as seen by the registry.
type RunSample struct {
	Backend   string
	Mode      string
	Sent      int64
	Received  int64
	Duration  time.Duration
	Latencies []time.Duration
}

// MetricsRegistry holds Prometheus collectors plus a snapshot map.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time

	reg      *prometheus.Registry
	sent     *prometheus.CounterVec
	received *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	duration *prometheus.GaugeVec
}

// NewMetricsRegistry creates a registry with all collectors registered.
func NewMetricsRegistry() *MetricsRegistry {
	mr := &MetricsRegistry{
		metrics: make(map[string]any),
		reg:     prometheus.NewRegistry(),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Data commands sent by producers.",
		}, []string{"backend"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Data commands processed by the consumer.",
		}, []string{"backend"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "latency_seconds",
			Help:      "Recorded message latency.",
			Buckets:   prometheus.ExponentialBuckets(100e-9, 4, 12),
		}, []string{"backend", "mode"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}, []string{"backend"}),
	}
	mr.reg.MustRegister(mr.sent, mr.received, mr.latency, mr.duration)
	return mr
}

// ObserveRun folds a finished run into the collectors.
func (mr *MetricsRegistry) ObserveRun(s RunSample) {
	mr.sent.WithLabelValues(s.Backend).Add(float64(s.Sent))
	mr.received.WithLabelValues(s.Backend).Add(float64(s.Received))
	mr.duration.WithLabelValues(s.Backend).Set(s.Duration.Seconds())
	hist := mr.latency.WithLabelValues(s.Backend, s.Mode)
	for _, d := range s.Latencies {
		hist.Observe(d.Seconds())
	}
	mr.Set("last_run.backend", s.Backend)
	mr.Set("last_run.received", s.Received)
}

// Set sets or updates a snapshot key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest snapshot values.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last snapshot write.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// Registry exposes the underlying Prometheus registry.
func (mr *MetricsRegistry) Registry() *prometheus.Registry {
	return mr.reg
}

// WriteText renders all collectors in the Prometheus text exposition format.
func (mr *MetricsRegistry) WriteText(w io.Writer) error {
	mfs, err := mr.reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
