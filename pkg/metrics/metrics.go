package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "teamkb"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	VersionsAppended = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "versions_appended_total", Help: "Number of version ledger entries written."},
	)
	VersionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "version_number_conflicts_total", Help: "Version number collisions retried by the ledger."},
	)
	ActivitiesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "activities_recorded_total", Help: "Activity log entries by action."},
		[]string{"action"},
	)
	AIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ai_requests_total", Help: "Calls to the AI collaborator by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	AIFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ai_fallbacks_total", Help: "Responses served from a deterministic fallback by operation."},
		[]string{"operation"},
	)
	HistoryCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "history_cache_requests_total", Help: "Version history cache lookups by result (hit|miss|error)."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		RateLimitAllowed,
		RateLimitRejected,
		VersionsAppended,
		VersionConflicts,
		ActivitiesRecorded,
		AIRequests,
		AIFallbacks,
		HistoryCacheRequests,
	)
}
