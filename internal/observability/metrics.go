package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the scoring pipeline.
type Metrics struct {
	StagesCompleted *prometheus.CounterVec   // labels: stage
	StageFailures   *prometheus.CounterVec   // labels: stage
	StageDuration   *prometheus.HistogramVec // labels: stage
	UnitsFailed     *prometheus.CounterVec   // labels: stage
	CacheLookups    *prometheus.CounterVec   // labels: stage, result={hit,miss}
	CellsWritten    prometheus.Counter
	LayersWritten   prometheus.Counter
	PipelineRunning prometheus.Gauge
	LastRunSuccess  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// stageBuckets spans sub-second reclassifications up to distance transforms
// over a whole state.
var stageBuckets = []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300, 900}

func newMetrics(buckets []float64) *Metrics {
	return &Metrics{
		StagesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wim",
			Name:      "stages_completed_total",
			Help:      "Pipeline stages that produced their intermediate.",
		}, []string{"stage"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wim",
			Name:      "stage_failures_total",
			Help:      "Pipeline stages that returned an error.",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wim",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent computing one stage.",
			Buckets:   buckets,
		}, []string{"stage"}),
		UnitsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wim",
			Name:      "units_failed_total",
			Help:      "Processing units skipped by a per-unit mosaic.",
		}, []string{"stage"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wim",
			Name:      "stage_cache_lookups_total",
			Help:      "Stage cache lookups by stage and result.",
		}, []string{"stage", "result"}),
		CellsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wim",
			Name:      "cells_written_total",
			Help:      "Data cells written across finalized products.",
		}),
		LayersWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wim",
			Name:      "layers_written_total",
			Help:      "Finalized products written to disk.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wim",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wim",
			Name:      "last_run_success",
			Help:      "1 when the most recent run finished without error.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StagesCompleted,
		m.StageFailures,
		m.StageDuration,
		m.UnitsFailed,
		m.CacheLookups,
		m.CellsWritten,
		m.LayersWritten,
		m.PipelineRunning,
		m.LastRunSuccess,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(stageBuckets)
	prometheus.MustRegister(m.collectors()...)
	m.gatherer = prometheus.DefaultGatherer
	return m
}

// NewLocalMetrics creates Metrics on a private registry. Runs started from
// a long-lived process such as the MCP server use it so repeated runs do not
// collide on the default registry.
func NewLocalMetrics() *Metrics {
	return newRegistryMetrics(stageBuckets)
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newRegistryMetrics(prometheus.DefBuckets)
}

func newRegistryMetrics(buckets []float64) *Metrics {
	m := newMetrics(buckets)
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	m.gatherer = reg
	return m
}

// WriteToTextfile writes the current metric values in the node_exporter
// textfile collector format.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.gatherer)
}
