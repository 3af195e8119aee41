package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transport metrics
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_connections",
			Help: "Open WebSocket connections",
		},
	)

	LiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_live_sessions",
			Help: "Sessions currently held in the presence registry",
		},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_handled_total",
			Help: "Client events dispatched by the session protocol handler",
		},
		[]string{"event"},
	)

	// Business metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Messages fanned out to a room",
		},
		[]string{"room_kind"}, // "room" or "private"
	)

	AccessDenied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_access_denied_total",
			Help: "Room joins refused by the moderation controller",
		},
	)

	Kicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_kicks_total",
			Help: "Sessions removed by an elevated user",
		},
	)

	// Infrastructure metrics
	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_persistence_failures_total",
			Help: "History store operations that failed",
		},
		[]string{"op"},
	)

	StoreLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_store_latency_seconds",
			Help:    "History store write latency",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1},
		},
	)
)
