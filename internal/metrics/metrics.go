package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postbridge_provider_requests_total",
		Help: "Provider API calls by outcome",
	}, []string{"provider", "outcome"})
	ProviderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postbridge_provider_request_duration_seconds",
		Help:    "Provider API call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	ProviderRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postbridge_provider_retries_total",
		Help: "Provider API retry attempts",
	}, []string{"provider"})
	PostTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postbridge_post_transitions_total",
		Help: "Post status transitions",
	}, []string{"from", "to"})
	AnalyticsRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postbridge_analytics_records_total",
		Help: "Analytics snapshots appended",
	})
	AnalyticsSyncFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postbridge_analytics_sync_failures_total",
		Help: "Posts whose analytics fetch failed during a bulk sync",
	})
)

func init() {
	prometheus.MustRegister(ProviderRequests, ProviderDuration, ProviderRetries, PostTransitions, AnalyticsRecords, AnalyticsSyncFailures)
}

// ObserveProviderRequest records one provider call and its latency.
func ObserveProviderRequest(provider, outcome string, start time.Time) {
	ProviderRequests.WithLabelValues(provider, outcome).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

func IncProviderRetry(provider string) { ProviderRetries.WithLabelValues(provider).Inc() }

func IncTransition(from, to string) { PostTransitions.WithLabelValues(from, to).Inc() }

func Handler() http.Handler { return promhttp.Handler() }
