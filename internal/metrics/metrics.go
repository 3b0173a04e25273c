// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TreeMutations counts applied tree mutations by operation.
	TreeMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visproject_tree_mutations_total",
		Help: "Applied project tree mutations",
	}, []string{"op"})

	// TreeReloads counts reloads of the tree document from disk.
	TreeReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visproject_tree_reloads_total",
		Help: "Tree document loads by outcome",
	}, []string{"outcome"})

	// LayoutDuration observes layout passes.
	LayoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "visproject_layout_duration_seconds",
		Help:    "Time to lay out the project tree",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})

	// RecordsPersisted counts interval records written per mode.
	RecordsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visproject_records_persisted_total",
		Help: "Interval records appended to the record store",
	}, []string{"mode"})

	// RecordSeconds sums persisted interval lengths per mode.
	RecordSeconds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visproject_record_seconds_total",
		Help: "Seconds of study time persisted",
	}, []string{"mode"})

	// SessionsEnded counts ended timer sessions per mode.
	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visproject_sessions_ended_total",
		Help: "Timer sessions ended",
	}, []string{"mode"})

	// SessionActive is 1 while a session is running or paused.
	SessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "visproject_session_active",
		Help: "Whether a timer session is currently open",
	})
)
