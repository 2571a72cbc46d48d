// Package metrics declares the Prometheus collectors exported by the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	relayNamespace = "roomrelay"

	eventLabelName  = "event"
	resultLabelName = "result"
	reasonLabelName = "reason"

	ResultDelivered = "delivered"
	ResultFailed    = "failed"

	ReasonNoRoom       = "no_room"
	ReasonRoomMismatch = "room_mismatch"
)

var (
	SessionsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: relayNamespace,
			Name:      "sessions_connected",
			Help:      "number of connected sessions",
		})

	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: relayNamespace,
			Name:      "rooms_active",
			Help:      "number of rooms with at least one member",
		})

	MembershipChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: relayNamespace,
			Name:      "membership_changes_total",
			Help:      "joins, leaves and disconnects that changed room membership",
		}, []string{eventLabelName})

	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: relayNamespace,
			Name:      "deliveries_total",
			Help:      "outbound events handed to the transport, by event and result",
		}, []string{eventLabelName, resultLabelName})

	MessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: relayNamespace,
			Name:      "messages_dropped_total",
			Help:      "chat messages not relayed, by reason",
		}, []string{reasonLabelName})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer returns the registerer passed to Register, or the Prometheus
// default one.
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register registers every relay collector with r.
func Register(r prometheus.Registerer) {
	r.MustRegister(SessionsConnected)
	r.MustRegister(RoomsActive)
	r.MustRegister(MembershipChanges)
	r.MustRegister(Deliveries)
	r.MustRegister(MessagesDropped)
	metricRegisterer = r
}
