package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics covers the civic engine's ingest paths and aggregation jobs.
type EngineMetrics struct {
	reportsIngested    *prometheus.CounterVec
	readingsIngested   prometheus.Counter
	validationFailures *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	alertsEmitted      prometheus.Counter
	criticalBins       prometheus.Gauge
	pointsAwarded      prometheus.Counter
	jobRuns            *prometheus.CounterVec
	jobDuration        *prometheus.HistogramVec
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

func Engine() *EngineMetrics {
	return EngineWithConfig(Config{})
}

func EngineWithConfig(cfg Config) *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = newEngineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return engineMetrics
}

func ResetEngineMetricsForTest() {
	engineMetricsOnce = sync.Once{}
	engineMetrics = nil
}

func newEngineMetrics(registerer prometheus.Registerer, cfg Config) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": cfg.serviceName(),
		"env":     environment,
	}

	reportsIngested := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "civicscore_reports_ingested_total",
			Help:        "Total citizen reports accepted at ingest.",
			ConstLabels: constLabels,
		},
		[]string{"type"},
	)

	readingsIngested := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "civicscore_readings_ingested_total",
			Help:        "Total bin telemetry readings accepted at ingest.",
			ConstLabels: constLabels,
		},
	)

	validationFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "civicscore_validation_failures_total",
			Help:        "Total payloads rejected by the ingest validator.",
			ConstLabels: constLabels,
		},
		[]string{"code"},
	)

	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "civicscore_ticket_transitions_total",
			Help:        "Total ticket transitions by target status and result.",
			ConstLabels: constLabels,
		},
		[]string{"target", "result"}, // result: applied | noop | rejected | conflict
	)

	alertsEmitted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "civicscore_bin_alerts_emitted_total",
			Help:        "Total edge-triggered critical bin alerts emitted.",
			ConstLabels: constLabels,
		},
	)

	criticalBins := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "civicscore_critical_bins",
			Help:        "Bins currently in critical state.",
			ConstLabels: constLabels,
		},
	)

	pointsAwarded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "civicscore_points_awarded_total",
			Help:        "Total leaderboard points awarded on ticket resolution.",
			ConstLabels: constLabels,
		},
	)

	jobRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "civicscore_job_runs_total",
			Help:        "Aggregation job runs by job and result.",
			ConstLabels: constLabels,
		},
		[]string{"job", "result"}, // result: success | skipped | timeout | failed
	)

	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "civicscore_job_duration_seconds",
			Help:        "Wall-clock duration of aggregation job runs.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			ConstLabels: constLabels,
		},
		[]string{"job"},
	)

	registerer.MustRegister(
		reportsIngested,
		readingsIngested,
		validationFailures,
		transitions,
		alertsEmitted,
		criticalBins,
		pointsAwarded,
		jobRuns,
		jobDuration,
	)

	return &EngineMetrics{
		reportsIngested:    reportsIngested,
		readingsIngested:   readingsIngested,
		validationFailures: validationFailures,
		transitions:        transitions,
		alertsEmitted:      alertsEmitted,
		criticalBins:       criticalBins,
		pointsAwarded:      pointsAwarded,
		jobRuns:            jobRuns,
		jobDuration:        jobDuration,
	}
}

func (m *EngineMetrics) IncReportIngested(reportType string) {
	if m == nil {
		return
	}
	m.reportsIngested.WithLabelValues(reportType).Inc()
}

func (m *EngineMetrics) IncReadingIngested() {
	if m == nil {
		return
	}
	m.readingsIngested.Inc()
}

func (m *EngineMetrics) IncValidationFailure(code string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(code).Inc()
}

func (m *EngineMetrics) IncTransition(target, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(target, result).Inc()
}

func (m *EngineMetrics) IncAlertEmitted() {
	if m == nil {
		return
	}
	m.alertsEmitted.Inc()
}

func (m *EngineMetrics) SetCriticalBins(count int) {
	if m == nil {
		return
	}
	m.criticalBins.Set(float64(count))
}

func (m *EngineMetrics) AddPointsAwarded(points int64) {
	if m == nil {
		return
	}
	m.pointsAwarded.Add(float64(points))
}

func (m *EngineMetrics) ObserveJobRun(job, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
