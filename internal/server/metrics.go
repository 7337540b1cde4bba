package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for catalog fetches, conversions and HTTP traffic.
// It satisfies [tasks.Observer].
type Metrics struct {
	FetchesTotal  *prometheus.CounterVec
	MatchesTotal  *prometheus.CounterVec
	MatchDuration prometheus.Histogram
	RequestsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotlink_catalog_fetches_total",
				Help: "Total number of catalog fetches",
			},
			[]string{"kind", "status"},
		),
		MatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotlink_matches_total",
				Help: "Total number of track conversions by outcome",
			},
			[]string{"outcome"},
		),
		MatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spotlink_match_duration_seconds",
				Help:    "Time spent searching the node and selecting a candidate",
				Buckets: prometheus.DefBuckets,
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotlink_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "code"},
		),
		gatherer: reg,
	}

	reg.MustRegister(m.FetchesTotal, m.MatchesTotal, m.MatchDuration, m.RequestsTotal)
	return m
}

func (m *Metrics) ObserveFetch(kind string, err error) {
	m.FetchesTotal.WithLabelValues(kind, status(err)).Inc()
}

func (m *Metrics) ObserveMatch(matched bool, err error, elapsed time.Duration) {
	outcome := "miss"
	switch {
	case err != nil:
		outcome = "error"
	case matched:
		outcome = "hit"
	}
	m.MatchesTotal.WithLabelValues(outcome).Inc()
	m.MatchDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// CountRequests is a [Middleware] counting requests by method and status code.
func (m *Metrics) CountRequests() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		})
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
