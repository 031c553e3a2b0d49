// Package metrics defines the custom Prometheus metrics of the platform
// binaries. It is the single source of truth for metric names, labels and
// help strings. All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopmesh"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "success", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RegistrationsTotal counts self-registrations.
// Label:
//   - result: "created", "duplicate", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts lifecycle events handed to the broker.
// Labels:
//   - topic: event topic (e.g. "user.created")
//   - result: "published", "failed" (broker error) or "dropped" (queue full)
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of user lifecycle events, by topic and publish result.",
	},
	[]string{"topic", "result"},
)

// EventsQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventPublishDuration measures one broker publish call.
// Label:
//   - topic: event topic
var EventPublishDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_publish_duration_seconds",
		Help:      "Duration of a single broker publish.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"topic"},
)

// ── Gateway metrics ───────────────────────────────────────────────────────────

// UpstreamErrorsTotal counts proxied requests that failed to reach a backend.
// Label:
//   - upstream: service name (e.g. "users", "payments")
var UpstreamErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_upstream_errors_total",
		Help:      "Total number of proxied requests that failed to reach the upstream service.",
	},
	[]string{"upstream"},
)
