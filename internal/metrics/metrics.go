package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocket metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "The current number of active WebSocket connections.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_connections_total",
		Help: "The total number of WebSocket connections accepted.",
	})
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_messages_received_total",
		Help: "The total number of messages received from clients.",
	})

	// Broadcast metrics
	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcasts_total",
		Help: "The total number of broadcast calls, by message type.",
	}, []string{"type"})
	BroadcastDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_deliveries_total",
		Help: "The total number of messages delivered to subscriber outboxes.",
	})
	BroadcastDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_drops_total",
		Help: "The total number of messages dropped due to full or closed subscriber outboxes.",
	})

	// Auth metrics
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_failures_total",
		Help: "The total number of failed authentications.",
	}, []string{"reason"})
	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_issued_total",
		Help: "The total number of sessions issued.",
	})
	SessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_revoked_total",
		Help: "The total number of sessions revoked.",
	})
)
