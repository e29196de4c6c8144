// Package metrics exposes the relay's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connections is the number of live WebSocket connections.
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghostline_connections",
		Help: "Live WebSocket connections.",
	})

	// Rooms is the number of live rooms.
	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghostline_rooms",
		Help: "Live rooms in the registry.",
	})

	// SignalsRelayed counts signals forwarded to a peer, by event name.
	SignalsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghostline_signals_relayed_total",
		Help: "Signals relayed to the peer occupant, by event.",
	}, []string{"event"})

	// Rejections counts refused inbound signals, by reason.
	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghostline_rejections_total",
		Help: "Rejected inbound signals, by reason.",
	}, []string{"reason"})
)

// Rejection reasons.
const (
	ReasonRateLimit  = "rate_limit"
	ReasonBruteForce = "brute_force"
	ReasonValidation = "validation"
	ReasonAuth       = "authorization"
	ReasonCapacity   = "capacity"
	ReasonQuota      = "quota"
	ReasonExhausted  = "code_exhausted"
)
