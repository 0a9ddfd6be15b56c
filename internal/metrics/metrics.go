// Package metrics exposes Prometheus counters for interactions and the live hub.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Interaction results used as label values
const (
	ResultSuccess     = "success"
	ResultRejected    = "rejected"
	ResultRateLimited = "rate_limited"
	ResultUpstream    = "upstream_error"
)

// Recorder is what the service and hub report to
type Recorder interface {
	RecordInteraction(action, result string)
	RecordEvolution(stage string)
	SetConnections(n int)
	RecordDroppedSend()
	RecordBroadcast(eventType string, recipients int)
}

// Collector is the Prometheus Recorder
type Collector struct {
	interactions *prometheus.CounterVec
	evolutions   *prometheus.CounterVec
	connections  prometheus.Gauge
	droppedSends prometheus.Counter
	broadcasts   *prometheus.CounterVec
	deliveries   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gellypet_interactions_total",
			Help: "Interactions by action and result",
		}, []string{"action", "result"}),
		evolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gellypet_evolutions_total",
			Help: "Stage transitions by the stage reached",
		}, []string{"stage"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gellypet_live_connections",
			Help: "Currently registered websocket connections",
		}),
		droppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gellypet_dropped_sends_total",
			Help: "Connections dropped because their send buffer was full",
		}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gellypet_broadcast_events_total",
			Help: "Events published by the hub",
		}, []string{"type"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gellypet_broadcast_deliveries_total",
			Help: "Event deliveries queued to connections",
		}, []string{"type"}),
	}

	reg.MustRegister(
		c.interactions,
		c.evolutions,
		c.connections,
		c.droppedSends,
		c.broadcasts,
		c.deliveries,
	)

	return c
}

func (c *Collector) RecordInteraction(action, result string) {
	c.interactions.WithLabelValues(action, result).Inc()
}

func (c *Collector) RecordEvolution(stage string) {
	c.evolutions.WithLabelValues(stage).Inc()
}

func (c *Collector) SetConnections(n int) {
	c.connections.Set(float64(n))
}

func (c *Collector) RecordDroppedSend() {
	c.droppedSends.Inc()
}

func (c *Collector) RecordBroadcast(eventType string, recipients int) {
	c.broadcasts.WithLabelValues(eventType).Inc()
	c.deliveries.WithLabelValues(eventType).Add(float64(recipients))
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards everything
type Noop struct{}

func (Noop) RecordInteraction(string, string) {}
func (Noop) RecordEvolution(string)           {}
func (Noop) SetConnections(int)               {}
func (Noop) RecordDroppedSend()               {}
func (Noop) RecordBroadcast(string, int)      {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Noop{}
)
