package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "nodewatch_"

	resultSuccess = "success"
	resultError   = "error"

	resultSent    = "sent"
	resultSkipped = "skipped"
)

var (
	registerOnce sync.Once

	checkinRequests *prometheus.CounterVec
	checkinLatency  *prometheus.HistogramVec
	checkinIgnored  *prometheus.CounterVec

	notificationsTotal *prometheus.CounterVec

	sweepRuns     *prometheus.CounterVec
	sweepLatency  *prometheus.HistogramVec
	sweepNotified prometheus.Counter
)

// Init registers observability metrics.
func Init() {
	registerOnce.Do(func() {
		checkinRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "checkin_requests_total",
				Help: "Total check-in requests by result",
			},
			[]string{"result"},
		)
		checkinLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "checkin_latency_seconds",
				Help:    "Check-in processing latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		checkinIgnored = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "checkin_ignored_total",
				Help: "Total check-ins accepted but ignored, by reason",
			},
			[]string{"reason"},
		)

		notificationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Total notification attempts by kind and result",
			},
			[]string{"kind", "result"},
		)

		sweepRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sweep_runs_total",
				Help: "Total offline sweep runs by result",
			},
			[]string{"result"},
		)
		sweepLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "sweep_latency_seconds",
				Help:    "Offline sweep latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		sweepNotified = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "sweep_offline_notices_total",
				Help: "Total offline notices sent by the sweep",
			},
		)

		prometheus.MustRegister(
			checkinRequests,
			checkinLatency,
			checkinIgnored,
			notificationsTotal,
			sweepRuns,
			sweepLatency,
			sweepNotified,
		)
	})
}

// ObserveCheckin records check-in duration and result.
func ObserveCheckin(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if checkinRequests != nil {
		checkinRequests.WithLabelValues(result).Inc()
	}
	if checkinLatency != nil {
		checkinLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncCheckinIgnored increments the ignored check-in counter.
func IncCheckinIgnored(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if checkinIgnored != nil {
		checkinIgnored.WithLabelValues(reason).Inc()
	}
}

// IncNotification increments notification counters.
func IncNotification(kind, result string) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSent
	}
	if notificationsTotal != nil {
		notificationsTotal.WithLabelValues(kind, result).Inc()
	}
}

// ObserveSweep records sweep duration, result and notified count.
func ObserveSweep(result string, notified int, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if sweepRuns != nil {
		sweepRuns.WithLabelValues(result).Inc()
	}
	if sweepLatency != nil {
		sweepLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if sweepNotified != nil && notified > 0 {
		sweepNotified.Add(float64(notified))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultSent    = resultSent
	ResultSkipped = resultSkipped
)
