// Package metrics records compile runs as Prometheus metrics.
//
// The compiler is a batch tool, so metrics are not scraped; they are
// written to a node-exporter textfile after each run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the collectors for one process.
type Recorder struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	species  prometheus.Gauge
	rules    prometheus.Gauge
	files    prometheus.Gauge
	written  prometheus.Counter
	lastRun  prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// runs counts compile runs by mode and result ("ok" or an error kind)
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exorules_compile_runs_total",
			Help: "Compile runs by mode and result",
		}, []string{"mode", "result"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exorules_compile_duration_seconds",
			Help:    "Compile duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"mode"}),

		species: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exorules_catalog_species",
			Help: "Species in the last successfully compiled catalog",
		}),
		rules: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exorules_catalog_rules",
			Help: "Rules in the last successfully compiled catalog",
		}),
		files: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exorules_catalog_files",
			Help: "Rule files read in the last successful compile",
		}),
		written: factory.NewCounter(prometheus.CounterOpts{
			Name: "exorules_output_writes_total",
			Help: "Times the generated output was rewritten",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exorules_last_run_timestamp_seconds",
			Help: "Unix time of the last compile run",
		}),
	}
}

// Run describes one finished compile run.
type Run struct {
	Mode     string
	Result   string
	Duration time.Duration
	Species  int
	Rules    int
	Files    int
	Written  bool
	At       time.Time
}

// Observe records a finished run. Catalog gauges only move on success.
func (r *Recorder) Observe(run Run) {
	r.runs.WithLabelValues(run.Mode, run.Result).Inc()
	r.duration.WithLabelValues(run.Mode).Observe(run.Duration.Seconds())
	if run.Result == "ok" {
		r.species.Set(float64(run.Species))
		r.rules.Set(float64(run.Rules))
		r.files.Set(float64(run.Files))
	}
	if run.Written {
		r.written.Inc()
	}
	r.lastRun.Set(float64(run.At.Unix()))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
