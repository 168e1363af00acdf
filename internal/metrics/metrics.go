// Package metrics exposes Prometheus collectors for the console edge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LoginAttempts counts completed login flows by outcome and winning app
	// registration ("admin", "tenant", or "none" on failure).
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "console_edge",
		Name:      "login_attempts_total",
		Help:      "Completed OAuth2 login flows by outcome.",
	}, []string{"outcome", "app"})

	// RouteDecisions counts tenant resolver decisions by action.
	RouteDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "console_edge",
		Name:      "route_decisions_total",
		Help:      "Tenant resolver decisions by action.",
	}, []string{"action"})

	// ProxyRequests counts authenticated proxy requests by method and the
	// response status class ("2xx", "4xx", "5xx").
	ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "console_edge",
		Name:      "proxy_requests_total",
		Help:      "Authenticated proxy requests by method and status class.",
	}, []string{"method", "status_class"})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass buckets an HTTP status code for the proxy counter.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
