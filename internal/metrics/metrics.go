package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusNoop    = "noop"
	StatusFailed  = "failed"
)

// Relationship actions used as the "action" label.
const (
	ActionCreate   = "create"
	ActionAccept   = "accept"
	ActionReject   = "reject"
	ActionCancel   = "cancel"
	ActionUnfriend = "unfriend"
)

var (
	metricsOnce sync.Once

	relationshipActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reunion_relationship_actions_total",
			Help: "Total number of friend request and friendship actions by outcome.",
		},
		[]string{"action", "status"},
	)

	directorySearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reunion_directory_searches_total",
			Help: "Total number of memory searches by mode.",
		},
		[]string{"mode", "status"},
	)

	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reunion_relationship_events_published_total",
			Help: "Total number of relationship events handed to the publisher.",
		},
		[]string{"type", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reunion_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reunion_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Register adds every collector to reg once per process. A nil reg means
// the default registerer.
func Register(reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(relationshipActionsTotal, directorySearchesTotal, eventsPublishedTotal,
			httpRequestsTotal, httpRequestDuration)
	})
}

func IncRelationshipAction(action, status string) {
	relationshipActionsTotal.WithLabelValues(action, status).Inc()
}

func IncDirectorySearch(fuzzy bool, status string) {
	mode := "exact"
	if fuzzy {
		mode = "fuzzy"
	}
	directorySearchesTotal.WithLabelValues(mode, status).Inc()
}

func IncEventPublished(eventType, status string) {
	if eventType == "" {
		eventType = "unknown"
	}
	eventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
