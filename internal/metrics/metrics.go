// Package metrics exposes Prometheus collectors for the socket layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for routed invite events.
const (
	OutcomeDelivered = "delivered"
	OutcomeOffline   = "offline"
	OutcomeFailed    = "failed"
)

// Metrics groups the collectors updated by the gateway, router and channel.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Connections    prometheus.Gauge
	Registered     prometheus.Gauge
	InboundEvents  *prometheus.CounterVec
	RoutedEvents   *prometheus.CounterVec
	BroadcastSends *prometheus.CounterVec
	RejectedEvents *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chat",
			Subsystem: "socket",
			Name:      "connections",
			Help:      "Number of open socket connections.",
		}),
		Registered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chat",
			Subsystem: "socket",
			Name:      "registered_users",
			Help:      "Number of user IDs currently mapped to a connection.",
		}),
		InboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "socket",
			Name:      "inbound_events_total",
			Help:      "Inbound socket events by event name.",
		}, []string{"event"}),
		RoutedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "router",
			Name:      "routed_events_total",
			Help:      "Directed invite events by kind and outcome.",
		}, []string{"kind", "outcome"}),
		BroadcastSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "broadcast",
			Name:      "sends_total",
			Help:      "Per-connection broadcast sends by outcome.",
		}, []string{"outcome"}),
		RejectedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "socket",
			Name:      "rejected_events_total",
			Help:      "Inbound events rejected by error code.",
		}, []string{"code"}),
	}

	reg.MustRegister(
		m.Connections,
		m.Registered,
		m.InboundEvents,
		m.RoutedEvents,
		m.BroadcastSends,
		m.RejectedEvents,
	)
	return m
}

// ConnectionOpened records a new connection.
func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

// ConnectionClosed records a closed connection.
func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

// SetRegistered sets the number of registered user IDs.
func (m *Metrics) SetRegistered(n int) {
	if m != nil {
		m.Registered.Set(float64(n))
	}
}

// Inbound counts an inbound event.
func (m *Metrics) Inbound(event string) {
	if m != nil {
		m.InboundEvents.WithLabelValues(event).Inc()
	}
}

// Routed counts a routed invite, accept or decline.
func (m *Metrics) Routed(kind, outcome string) {
	if m != nil {
		m.RoutedEvents.WithLabelValues(kind, outcome).Inc()
	}
}

// BroadcastSend counts one per-connection broadcast attempt.
func (m *Metrics) BroadcastSend(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.BroadcastSends.WithLabelValues(OutcomeDelivered).Inc()
	} else {
		m.BroadcastSends.WithLabelValues(OutcomeFailed).Inc()
	}
}

// Rejected counts an inbound event rejected with code.
func (m *Metrics) Rejected(code string) {
	if m != nil {
		m.RejectedEvents.WithLabelValues(code).Inc()
	}
}
