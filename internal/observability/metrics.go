package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	progressUpdatesTotal  *prometheus.CounterVec
	rulesSatisfiedTotal   prometheus.Counter
	rewardsGrantedTotal   *prometheus.CounterVec
	reportsGeneratedTotal *prometheus.CounterVec
	reviewsSubmittedTotal *prometheus.CounterVec
	streamClientsActive   prometheus.Gauge
	notificationsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamify_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gamify_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamify_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		progressUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamify_progress_updates_total",
			Help: "Progress tracking updates applied, labelled by update mode.",
		}, []string{"mode"})

		rulesSatisfiedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamify_rules_satisfied_total",
			Help: "Number of times a rule became fully satisfied for a user.",
		})

		rewardsGrantedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamify_rewards_granted_total",
			Help: "Rewards handed to users, labelled by grant path.",
		}, []string{"path"})

		reportsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamify_reports_generated_total",
			Help: "Artifact reports produced, labelled by cache outcome.",
		}, []string{"cache"})

		reviewsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamify_reviews_submitted_total",
			Help: "Artifact review submissions, labelled by resulting status.",
		}, []string{"status"})

		streamClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gamify_stream_clients_active",
			Help: "Currently connected notification stream clients.",
		})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamify_notifications_published_total",
			Help: "Notifications published, labelled by type.",
		}, []string{"type"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			progressUpdatesTotal,
			rulesSatisfiedTotal,
			rewardsGrantedTotal,
			reportsGeneratedTotal,
			reviewsSubmittedTotal,
			streamClientsActive,
			notificationsTotal,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ProgressUpdates exposes the counter for progress tracking updates.
func ProgressUpdates() *prometheus.CounterVec {
	RegisterMetrics()
	return progressUpdatesTotal
}

// RulesSatisfied exposes the counter for fully satisfied rules.
func RulesSatisfied() prometheus.Counter {
	RegisterMetrics()
	return rulesSatisfiedTotal
}

// RewardsGranted exposes the counter for reward grants.
func RewardsGranted() *prometheus.CounterVec {
	RegisterMetrics()
	return rewardsGrantedTotal
}

// ReportsGenerated exposes the counter for report generation.
func ReportsGenerated() *prometheus.CounterVec {
	RegisterMetrics()
	return reportsGeneratedTotal
}

// ReviewsSubmitted exposes the counter for review submissions.
func ReviewsSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewsSubmittedTotal
}

// StreamClients exposes the gauge of connected stream clients.
func StreamClients() prometheus.Gauge {
	RegisterMetrics()
	return streamClientsActive
}

// NotificationsPublished exposes the counter for published notifications.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}
