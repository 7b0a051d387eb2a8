package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storycurator_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storycurator_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Capture pipeline
	ConversationsAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storycurator_conversations_analyzed_total",
			Help: "Conversations run through the story analyzer",
		},
		[]string{"story_potential"},
	)

	QueueItemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storycurator_queue_items_processed_total",
			Help: "Capture queue entries handled by the batch processor, by outcome",
		},
		[]string{"outcome"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storycurator_batch_duration_seconds",
			Help:    "Duration of one capture batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Governance
	VotesCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storycurator_votes_cast_total",
			Help: "Community votes recorded, by value",
		},
		[]string{"vote"},
	)

	DecisionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storycurator_decisions_closed_total",
			Help: "Validation decisions that reached a final status",
		},
		[]string{"status"},
	)

	// Curation
	StoriesFeatured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storycurator_stories_featured_total",
			Help: "Articles flagged as featured, by pass",
		},
		[]string{"pass"},
	)

	// Broker
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storycurator_events_published_total",
			Help: "Pipeline events published to the broker",
		},
		[]string{"subject", "status"},
	)
)

// Outcome labels for QueueItemsProcessed.
const (
	OutcomePublished = "published"
	OutcomeCaptured  = "captured"
	OutcomeDeferred  = "deferred"
	OutcomeRetried   = "retried"
	OutcomeRejected  = "rejected"
)
