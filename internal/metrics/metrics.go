// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is private to the service so tests and multiple servers do not
// collide with the global default registry.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	CodesIssued = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "spotmaps",
		Name:      "auth_codes_issued_total",
		Help:      "One-time codes generated and stored.",
	})
	CodeDeliveryFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "spotmaps",
		Name:      "auth_code_delivery_failures_total",
		Help:      "One-time codes stored but not delivered by the mailer.",
	})
	CodeVerifications = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmaps",
		Name:      "auth_code_verifications_total",
		Help:      "Code verification attempts by result.",
	}, []string{"result"})
	TokensIssued = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "spotmaps",
		Name:      "auth_tokens_issued_total",
		Help:      "Signed tokens issued.",
	})
	TokenValidations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmaps",
		Name:      "auth_token_validations_total",
		Help:      "Token validations by result.",
	}, []string{"result"})
	// Votes has no per-spot label: choices are free text. Per-spot totals
	// come from the analytics table.
	Votes = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "spotmaps",
		Name:      "spot_votes_total",
		Help:      "Votes recorded.",
	})
	HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmaps",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	HTTPDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spotmaps",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
