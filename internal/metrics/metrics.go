package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's prometheus instruments on a private registry.
type Collector struct {
	registry *prometheus.Registry

	routingOutcomes   *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	slaAlerts         *prometheus.CounterVec
	notifications     prometheus.Counter
	requestsCreated   prometheus.Counter
}

// NewCollector registers all instruments on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		routingOutcomes: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "cr_routing_outcomes_total",
			Help: "Routing engine outcomes by kind",
		}, []string{"outcome"}),
		statusTransitions: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "cr_status_transitions_total",
			Help: "Status transition engine results by status",
		}, []string{"status"}),
		slaAlerts: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "cr_sla_alerts_total",
			Help: "SLA monitor alerts by kind",
		}, []string{"kind"}),
		notifications: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "cr_notifications_total",
			Help: "Total notifications emitted to clients",
		}),
		requestsCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "cr_requests_created_total",
			Help: "Total credit requests created",
		}),
	}
}

func (c *Collector) RecordRoutingOutcome(outcome string) {
	c.routingOutcomes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordStatusTransition(status string) {
	c.statusTransitions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordSLAAlert(kind string) {
	c.slaAlerts.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordNotification() {
	c.notifications.Inc()
}

func (c *Collector) RecordRequestCreated() {
	c.requestsCreated.Inc()
}

// Handler exposes the registry for scraping.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
