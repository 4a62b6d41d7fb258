// Package metrics exports report run observations through Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder keeps report timings, outcomes and row counts in its own
// registry. It satisfies analytics.MetricsRecorder.
type Recorder struct {
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	results  *prometheus.CounterVec
	rows     *prometheus.GaugeVec
	invalid  *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "circulation",
			Name:      "report_duration_seconds",
			Help:      "Time spent loading the snapshot and building a report.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"report"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circulation",
			Name:      "report_runs_total",
			Help:      "Report runs by outcome.",
		}, []string{"report", "status"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "circulation",
			Name:      "report_rows",
			Help:      "Rows produced by the last successful run of a report.",
		}, []string{"report"}),
		invalid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "circulation",
			Name:      "report_invalid_source_rows",
			Help:      "Source rows excluded for dangling references in the last run.",
		}, []string{"report"}),
	}
	r.registry.MustRegister(r.duration, r.results, r.rows, r.invalid)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Observe(_ context.Context, report string, success bool, duration time.Duration) {
	if report == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.duration.WithLabelValues(report).Observe(duration.Seconds())
	r.results.WithLabelValues(report, status).Inc()
}

func (r *Recorder) RecordRows(report string, rows int, invalidRows int) {
	r.rows.WithLabelValues(report).Set(float64(rows))
	r.invalid.WithLabelValues(report).Set(float64(invalidRows))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
