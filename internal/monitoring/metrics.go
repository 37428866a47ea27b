package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. Construct one per
// process (or per test) against its own registry.
type Metrics struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResearchQueries *prometheus.CounterVec
	SourceRequests  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "research_agent_requests_total",
			Help: "Total number of requests",
		}, []string{"method", "endpoint", "status_code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "research_agent_request_duration_seconds",
			Help: "Request duration in seconds",
		}, []string{"method", "endpoint"}),
		ResearchQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "research_agent_queries_total",
			Help: "Total number of research queries",
		}, []string{"status", "complexity"}),
		SourceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "research_agent_source_requests_total",
			Help: "Total number of source requests",
		}, []string{"source_type", "status"}),
	}
}
