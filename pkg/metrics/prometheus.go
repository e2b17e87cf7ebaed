// Package metrics provides Prometheus metrics for the task session.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the task runner.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Schedule metrics
	schedulesBuilt  prometheus.Counter
	schedulesLoaded prometheus.Counter
	trialsScheduled prometheus.Gauge
	buildDuration   prometheus.Histogram

	// Event-logging metrics
	pulses         prometheus.Counter
	keyPresses     prometheus.Counter
	responsesTaken prometheus.Counter
	aborts         prometheus.Counter
	sinkWrites     prometheus.Counter
	sinkErrors     prometheus.Counter

	// Run metrics
	trialsPresented prometheus.Counter
	runsCompleted   prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fmritask",
		subsystem:        "session",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.schedulesBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "schedules_built_total",
		Help:      "Total number of trial schedules constructed from a stimulus list",
	})

	m.schedulesLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "schedules_loaded_total",
		Help:      "Total number of persisted schedules read back for later runs",
	})

	m.trialsScheduled = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trials_scheduled",
		Help:      "Number of trials in the current participant's schedule",
	})

	m.buildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "schedule_build_milliseconds",
		Help:      "Histogram of schedule construction time in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.pulses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_pulses_total",
		Help:      "Total number of scanner trigger pulses observed",
	})

	m.keyPresses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "key_presses_total",
		Help:      "Total number of participant key presses logged",
	})

	m.responsesTaken = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "responses_recorded_total",
		Help:      "Total number of qualifying responses returned to the caller",
	})

	m.aborts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aborts_total",
		Help:      "Total number of escape-key aborts",
	})

	m.sinkWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "logsink_writes_total",
		Help:      "Total number of records appended to the event log sink",
	})

	m.sinkErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "logsink_errors_total",
		Help:      "Total number of event log sink write failures",
	})

	m.trialsPresented = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trials_presented_total",
		Help:      "Total number of trials handed to the presentation loop",
	})

	m.runsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_completed_total",
		Help:      "Total number of runs completed without abort",
	})
}

// Schedule metrics functions.

// RecordScheduleBuilt increments the built-schedules counter.
func RecordScheduleBuilt() {
	globalManager.schedulesBuilt.Inc()
}

// RecordScheduleLoaded increments the loaded-schedules counter.
func RecordScheduleLoaded() {
	globalManager.schedulesLoaded.Inc()
}

// UpdateTrialsScheduled sets the size of the active schedule.
func UpdateTrialsScheduled(count int) {
	globalManager.trialsScheduled.Set(float64(count))
}

// RecordScheduleBuildDuration records schedule construction latency.
func RecordScheduleBuildDuration(latencyMs float64) {
	globalManager.buildDuration.Observe(latencyMs)
}

// Event-logging metrics functions.

// RecordPulse increments the trigger pulse counter.
func RecordPulse() {
	globalManager.pulses.Inc()
}

// RecordKeyPress increments the key press counter.
func RecordKeyPress() {
	globalManager.keyPresses.Inc()
}

// RecordResponse increments the qualifying-response counter.
func RecordResponse() {
	globalManager.responsesTaken.Inc()
}

// RecordAbort increments the abort counter.
func RecordAbort() {
	globalManager.aborts.Inc()
}

// RecordSinkWrite increments the log sink write counter.
func RecordSinkWrite() {
	globalManager.sinkWrites.Inc()
}

// RecordSinkError increments the log sink error counter.
func RecordSinkError() {
	globalManager.sinkErrors.Inc()
}

// Run metrics functions.

// RecordTrialPresented increments the presented-trials counter.
func RecordTrialPresented() {
	globalManager.trialsPresented.Inc()
}

// RecordRunCompleted increments the completed-runs counter.
func RecordRunCompleted() {
	globalManager.runsCompleted.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
