// Package metrics provides Prometheus metrics for sync runs. Each Recorder
// owns its registry so runs and tests never share counters.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects counters for one process.
type Recorder struct {
	registry *prometheus.Registry

	nodesTotal       *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	remoteCalls      *prometheus.CounterVec
	remoteDuration   *prometheus.HistogramVec
	runDuration      prometheus.Histogram
	lastRunTimestamp prometheus.Gauge
	purgedFiles      *prometheus.CounterVec
}

func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		nodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikisync_nodes_total",
				Help: "Pages handled by the synchronizer by kind and action",
			},
			[]string{"kind", "action"},
		),
		failuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikisync_failures_total",
				Help: "Units skipped after a failure, by stage",
			},
			[]string{"stage"},
		),
		remoteCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikisync_remote_calls_total",
				Help: "Confluence API calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		remoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wikisync_remote_call_duration_seconds",
				Help:    "Confluence API call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wikisync_run_duration_seconds",
				Help:    "Wall time of a full synchronization run",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		),
		lastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wikisync_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
		purgedFiles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikisync_purged_files_total",
				Help: "Files handled by the purge utility by result",
			},
			[]string{"result"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordNode counts a folder or document page action (created, found, updated,
// relinked, attached, restricted).
func (r *Recorder) RecordNode(kind, action string) {
	r.nodesTotal.WithLabelValues(kind, action).Inc()
}

// RecordFailure counts a unit skipped at stage.
func (r *Recorder) RecordFailure(stage string) {
	r.failuresTotal.WithLabelValues(stage).Inc()
}

// ObserveCall records one remote call. A zero status means the request never
// got a response.
func (r *Recorder) ObserveCall(operation string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.remoteCalls.WithLabelValues(operation, label).Inc()
	r.remoteDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(duration time.Duration, finished time.Time) {
	r.runDuration.Observe(duration.Seconds())
	r.lastRunTimestamp.Set(float64(finished.Unix()))
}

// RecordPurge counts deleted and failed files.
func (r *Recorder) RecordPurge(deleted, failed int) {
	r.purgedFiles.WithLabelValues("deleted").Add(float64(deleted))
	r.purgedFiles.WithLabelValues("failed").Add(float64(failed))
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
