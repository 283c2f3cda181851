package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WelcomeRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_requests_total",
		Help: "Total number of welcome card requests",
	})
	WelcomeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "welcome_duration_ms",
		Help:    "Welcome card resolution duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 3000},
	})
	WelcomeStateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_state_total",
		Help: "Rendered welcome card states",
	}, []string{"state"})
	GateRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_gate_rejected_total",
		Help: "Requests rejected by the home-page-only gate",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_cache_hits_total",
		Help: "Total geo cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_cache_misses_total",
		Help: "Total geo cache misses (absent, expired or corrupt)",
	})
	CacheErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_cache_errors_total",
		Help: "Total swallowed geo cache write failures",
	})
	SourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_source_requests_total",
		Help: "Total resolver source attempts",
	}, []string{"source"})
	SourceFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_source_fail_total",
		Help: "Total resolver source failures",
	}, []string{"source"})
	SourceDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "welcome_source_duration_ms",
		Help:    "Resolver source duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 3000},
	}, []string{"source"})
	StaticFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_static_fallback_total",
		Help: "Resolutions answered by the static placeholder",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_rate_limited_total",
		Help: "Requests rejected by the token bucket",
	})
	StatsErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_stats_errors_total",
		Help: "Swallowed visit stats failures",
	})
)

func init() {
	prometheus.MustRegister(
		WelcomeRequestsTotal,
		WelcomeDurationMs,
		WelcomeStateTotal,
		GateRejectedTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		CacheErrorsTotal,
		SourceRequestsTotal,
		SourceFailTotal,
		SourceDurationMs,
		StaticFallbackTotal,
		RateLimitedTotal,
		StatsErrorsTotal,
	)
}

// Handler：暴露已注册指标，供 Prometheus 抓取
func Handler() http.Handler { return promhttp.Handler() }
