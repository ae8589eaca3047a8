package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics holds the per-run counters a binary accumulates while it
// works. Runs are short-lived batch jobs, so instead of serving a
// /metrics endpoint the final state is written to a Prometheus textfile
// that the node-exporter textfile collector (or a human) can pick up.
type RunMetrics struct {
	registry *prometheus.Registry

	// Input counters
	ArchivesProcessed prometheus.Counter
	RowsRead          prometheus.Counter
	RowsSkipped       prometheus.Counter
	RowsDeduplicated  prometheus.Counter

	// Series counters
	RecordsProcessed prometheus.Counter
	RecordsMalformed prometheus.Counter
	RecordsExcluded  prometheus.Counter
	BatchesProcessed prometheus.Counter

	// Output counters
	RowsWritten prometheus.Counter
	GroupsTotal prometheus.Gauge

	// Run gauges
	RunDuration prometheus.Gauge

	// Runtime gauges, sampled at write time
	heapBytes  prometheus.Gauge
	goroutines prometheus.Gauge
}

// NewRunMetrics creates a metrics set for one binary run. Each set owns
// its registry so tests and repeated runs never collide.
func NewRunMetrics(binary string) *RunMetrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"binary": binary}

	m := &RunMetrics{
		registry: registry,

		ArchivesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chcli", Name: "archives_processed_total",
			Help:        "Number of snapshot archives processed",
			ConstLabels: labels,
		}),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chcli", Name: "rows_read_total",
			Help:        "Number of snapshot rows read",
			ConstLabels: labels,
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chcli", Name: "rows_skipped_total",
			Help:        "Number of snapshot rows skipped as unusable",
			ConstLabels: labels,
		}),
		RowsDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chcli", Name: "rows_deduplicated_total",
			Help:        "Number of rows dropped as duplicate company numbers",
			ConstLabels: labels,
		}),

		RecordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chcli", Name: "records_processed_total",
			Help:        "Number of records fed to the series aggregator",
			ConstLabels: labels,
		}),
		RecordsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chcli", Name: "records_malformed_total",
			Help:        "Number of records with missing or unparsable dates",
			ConstLabels: labels,
		}),
		RecordsExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chcli", Name: "records_excluded_total",
			Help:        "Number of records outside the observation period",
			ConstLabels: labels,
		}),
		BatchesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chcli", Name: "batches_processed_total",
			Help:        "Number of record batches processed",
			ConstLabels: labels,
		}),

		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chcli", Name: "rows_written_total",
			Help:        "Number of rows written to output files",
			ConstLabels: labels,
		}),
		GroupsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chcli", Name: "groups_total",
			Help:        "Number of distinct postcode groups in the output",
			ConstLabels: labels,
		}),

		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chcli", Name: "run_duration_seconds",
			Help:        "Wall-clock duration of the run",
			ConstLabels: labels,
		}),

		heapBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chcli", Name: "heap_alloc_bytes",
			Help:        "Heap bytes allocated at the end of the run",
			ConstLabels: labels,
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chcli", Name: "goroutines",
			Help:        "Goroutine count at the end of the run",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(
		m.ArchivesProcessed, m.RowsRead, m.RowsSkipped, m.RowsDeduplicated,
		m.RecordsProcessed, m.RecordsMalformed, m.RecordsExcluded, m.BatchesProcessed,
		m.RowsWritten, m.GroupsTotal,
		m.RunDuration, m.heapBytes, m.goroutines,
	)

	return m
}

// WriteTextfile samples the runtime gauges and writes all metrics to a
// Prometheus textfile at path, creating the directory if needed.
func (m *RunMetrics) WriteTextfile(path string, elapsed time.Duration) error {
	m.RunDuration.Set(elapsed.Seconds())

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.heapBytes.Set(float64(ms.HeapAlloc))
	m.goroutines.Set(float64(runtime.NumGoroutine()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}

// Registry exposes the underlying registry, used by tests.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}
