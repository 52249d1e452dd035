package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "mdblog"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	renderDuration  *prom.HistogramVec
	renderResults   *prom.CounterVec
	buildDuration   prom.Histogram
	buildOutcomes   *prom.CounterVec
	buildPosts      prom.Gauge
	requestDuration *prom.HistogramVec
	requests        *prom.CounterVec
	themeToggles    *prom.CounterVec
	legacyRedirects prom.Counter
}

// NewPrometheusRecorder constructs and registers the collectors on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.renderDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of single post conversions",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.renderResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "render_results_total",
			Help:      "Post conversions by outcome",
		}, []string{"result"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "build_duration_seconds",
			Help:      "Total static build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "build_outcomes_total",
			Help:      "Static builds by final status",
		}, []string{"result"})
		pr.buildPosts = prom.NewGauge(prom.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_posts",
			Help:      "Posts written by the last static build",
		})
		pr.requestDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prom.DefBuckets,
		}, []string{"route"})
		pr.requests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code",
		}, []string{"route", "code"})
		pr.themeToggles = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "theme_toggles_total",
			Help:      "Theme toggles by resulting theme",
		}, []string{"theme"})
		pr.legacyRedirects = prom.NewCounter(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "legacy_redirects_total",
			Help:      "Permanent redirects from dated legacy URLs",
		})
		reg.MustRegister(pr.renderDuration, pr.renderResults, pr.buildDuration, pr.buildOutcomes,
			pr.buildPosts, pr.requestDuration, pr.requests, pr.themeToggles, pr.legacyRedirects)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRender(d time.Duration, result ResultLabel) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.WithLabelValues(string(result)).Observe(d.Seconds())
	p.renderResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuild(d time.Duration, posts int, result ResultLabel) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
	p.buildOutcomes.WithLabelValues(string(result)).Inc()
	p.buildPosts.Set(float64(posts))
}

func (p *PrometheusRecorder) ObserveRequest(route string, status int, d time.Duration) {
	if p == nil || p.requests == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	p.requestDuration.WithLabelValues(route).Observe(d.Seconds())
	p.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncThemeToggle(theme string) {
	if p == nil || p.themeToggles == nil {
		return
	}
	p.themeToggles.WithLabelValues(theme).Inc()
}

func (p *PrometheusRecorder) IncLegacyRedirect() {
	if p == nil || p.legacyRedirects == nil {
		return
	}
	p.legacyRedirects.Inc()
}

// Compile-time interface check.
var _ Recorder = (*PrometheusRecorder)(nil)
