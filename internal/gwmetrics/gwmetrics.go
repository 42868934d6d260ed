// Package gwmetrics exposes Prometheus counters and gauges for the
// gateway (§3 domain-stack wiring for
// prometheus/client_golang): frames in/out per transport, digipeat
// activity, message retry counts, and connected-mode session state.
package gwmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tncgw",
		Name:      "frames_received_total",
		Help:      "AX.25 frames received, by transport and channel.",
	}, []string{"transport", "channel"})

	FramesTransmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tncgw",
		Name:      "frames_transmitted_total",
		Help:      "AX.25 frames transmitted, by transport and channel.",
	}, []string{"transport", "channel"})

	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tncgw",
		Name:      "frames_dropped_total",
		Help:      "KISS frames dropped during decode, by reason.",
	}, []string{"reason"})

	DigipeatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tncgw",
		Name:      "digipeated_total",
		Help:      "Frames retransmitted by the digipeater.",
	})

	KnownStations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tncgw",
		Name:      "known_stations",
		Help:      "Distinct stations currently tracked in the station database.",
	})

	MessagesPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tncgw",
		Name:      "messages_pending",
		Help:      "Outgoing messages awaiting acknowledgement.",
	})

	MessagesAcked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tncgw",
		Name:      "messages_acked_total",
		Help:      "Outgoing messages that received an ack.",
	})

	MessagesAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tncgw",
		Name:      "messages_abandoned_total",
		Help:      "Outgoing messages dropped after exhausting retries.",
	})

	LinkSessionsByState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tncgw",
		Name:      "link_sessions",
		Help:      "Connected-mode AX.25 sessions by state.",
	}, []string{"state"})

	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tncgw",
		Name:      "sse_clients",
		Help:      "Currently connected Server-Sent-Events clients.",
	})
)
