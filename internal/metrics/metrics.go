// Package metrics counts what a billing run did and exports the numbers in
// the Prometheus text format, for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "recibos"

// Metrics holds the counters of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RowsRead          prometheus.Counter
	ReceiptsIssued    prometheus.Counter
	RowsSkipped       prometheus.Counter
	ExtrasIncluded    prometheus.Counter
	RunDuration       prometheus.Gauge
	LastRunSuccessful prometheus.Gauge
}

// New creates the metrics and registers them.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Data rows read from the input table.",
		}),
		ReceiptsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_issued_total",
			Help:      "Receipts rendered to the output directory.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Rows left out because they failed validation.",
		}),
		ExtrasIncluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extra_charges_included_total",
			Help:      "Extra charges printed on a receipt.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		LastRunSuccessful: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed without error.",
		}),
	}

	m.registry.MustRegister(
		m.RowsRead,
		m.ReceiptsIssued,
		m.RowsSkipped,
		m.ExtrasIncluded,
		m.RunDuration,
		m.LastRunSuccessful,
	)

	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records the duration of a run and, if it succeeded, its end
// time.
func (m *Metrics) ObserveRun(started, finished time.Time, succeeded bool) {
	m.RunDuration.Set(finished.Sub(started).Seconds())
	if succeeded {
		m.LastRunSuccessful.Set(float64(finished.Unix()))
	}
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
