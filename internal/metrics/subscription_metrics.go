package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// SubscriptionMetrics counters for the subscription lifecycle
type SubscriptionMetrics interface {
	IncActivated(plan string)
	IncRenewed(plan string, renewalType string)
	IncRenewalFailed(plan string)
	IncCancelled(plan string)
	IncExpired(plan string)
	IncNotification(notificationType string, outcome string)
	IncWebhookEvent(eventType string, outcome string)
	ObserveSweepDuration(job string, seconds float64)
}

type subscriptionMetrics struct {
	log           *logger.Logger
	lifecycle     *prometheus.CounterVec
	renewals      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	sweepDuration *prometheus.HistogramVec
}

// NewSubscriptionMetrics creates and registers the subscription metrics
func NewSubscriptionMetrics(registry *prometheus.Registry, log *logger.Logger) SubscriptionMetrics {
	lifecycle := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_lifecycle_total",
			Help: "The total number of subscription lifecycle transitions",
		},
		[]string{"transition", "plan"},
	)

	renewals := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_renewals_total",
			Help: "The total number of renewal attempts by outcome",
		},
		[]string{"plan", "type", "outcome"},
	)

	notifications := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "The total number of notification dispatch attempts by outcome",
		},
		[]string{"type", "outcome"},
	)

	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "The total number of processed webhook events by outcome",
		},
		[]string{"event_type", "outcome"},
	)

	sweepDuration := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of scheduled sweep jobs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"job"},
	)

	return &subscriptionMetrics{
		log:           log,
		lifecycle:     lifecycle,
		renewals:      renewals,
		notifications: notifications,
		webhookEvents: webhookEvents,
		sweepDuration: sweepDuration,
	}
}

// IncActivated increments the activation counter
func (m *subscriptionMetrics) IncActivated(plan string) {
	m.lifecycle.WithLabelValues("activated", plan).Inc()
}

// IncRenewed increments the successful renewal counter
func (m *subscriptionMetrics) IncRenewed(plan string, renewalType string) {
	m.lifecycle.WithLabelValues("renewed", plan).Inc()
	m.renewals.WithLabelValues(plan, renewalType, "success").Inc()
}

// IncRenewalFailed increments the failed renewal counter
func (m *subscriptionMetrics) IncRenewalFailed(plan string) {
	m.renewals.WithLabelValues(plan, "auto_renewal", "failed").Inc()
}

// IncCancelled increments the cancellation counter
func (m *subscriptionMetrics) IncCancelled(plan string) {
	m.lifecycle.WithLabelValues("cancelled", plan).Inc()
}

// IncExpired increments the expiry counter
func (m *subscriptionMetrics) IncExpired(plan string) {
	m.lifecycle.WithLabelValues("expired", plan).Inc()
}

// IncNotification counts one dispatch attempt. Outcome is sent, failed or skipped.
func (m *subscriptionMetrics) IncNotification(notificationType string, outcome string) {
	m.notifications.WithLabelValues(notificationType, outcome).Inc()
}

// IncWebhookEvent counts one webhook event. Outcome is processed, duplicate or unknown_user.
func (m *subscriptionMetrics) IncWebhookEvent(eventType string, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// ObserveSweepDuration records how long one sweep job took
func (m *subscriptionMetrics) ObserveSweepDuration(job string, seconds float64) {
	m.sweepDuration.WithLabelValues(job).Observe(seconds)
}

// NopSubscriptionMetrics drops all observations. Used in tests.
type NopSubscriptionMetrics struct{}

func (NopSubscriptionMetrics) IncActivated(string)                 {}
func (NopSubscriptionMetrics) IncRenewed(string, string)           {}
func (NopSubscriptionMetrics) IncRenewalFailed(string)             {}
func (NopSubscriptionMetrics) IncCancelled(string)                 {}
func (NopSubscriptionMetrics) IncExpired(string)                   {}
func (NopSubscriptionMetrics) IncNotification(string, string)      {}
func (NopSubscriptionMetrics) IncWebhookEvent(string, string)      {}
func (NopSubscriptionMetrics) ObserveSweepDuration(string, float64) {}
