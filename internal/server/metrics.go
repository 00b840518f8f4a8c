package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/observability"
)

// Metrics implements the observability hooks with Prometheus collectors on
// its own registry.
type Metrics struct {
	reg *prometheus.Registry

	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	expanded       prometheus.Histogram
	pipelines      *prometheus.CounterVec
	renders        *prometheus.CounterVec
	renderFrames   prometheus.Histogram
	cacheEvents    *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	inFlight       prometheus.Gauge
	graphNodes     prometheus.Gauge
}

// NewMetrics registers the wayfinder collectors plus the Go and process
// collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_route_searches_total",
			Help: "Route searches, labelled by outcome code (ok on success).",
		}, []string{"code"}),
		searchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wayfinder_route_search_duration_seconds",
			Help:    "Route search latency.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		expanded: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wayfinder_route_expanded_nodes",
			Help:    "Nodes expanded per route search.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		pipelines: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_pipeline_runs_total",
			Help: "Pipeline runs, labelled by outcome code.",
		}, []string{"code"}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_renders_total",
			Help: "Segment renders, labelled by floor and outcome.",
		}, []string{"floor", "outcome"}),
		renderFrames: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wayfinder_render_frames",
			Help:    "Frames drawn per segment render.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 240},
		}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_cache_events_total",
			Help: "Cache lookups and writes, labelled by key type and event.",
		}, []string{"key_type", "event"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_cache_written_bytes_total",
			Help: "Bytes written to the cache, labelled by key type.",
		}, []string{"key_type"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_http_requests_total",
			Help: "HTTP requests, labelled by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wayfinder_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "wayfinder_http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
		graphNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "wayfinder_building_nodes",
			Help: "Nodes in the building snapshot currently served.",
		}),
	}
}

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetRouteHooks(m)
	observability.SetRenderHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) setGraphNodes(n int) { m.graphNodes.Set(float64(n)) }

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return "error"
}

func (m *Metrics) OnSearchStart(context.Context, string, string) {}

func (m *Metrics) OnSearchComplete(_ context.Context, _, _ string, expanded int, d time.Duration, err error) {
	m.searches.WithLabelValues(outcome(err)).Inc()
	m.searchDuration.Observe(d.Seconds())
	m.expanded.Observe(float64(expanded))
}

func (m *Metrics) OnPipelineStart(context.Context, string) {}

func (m *Metrics) OnPipelineComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	m.pipelines.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) OnRenderStart(context.Context, int, bool) {}

func (m *Metrics) OnRenderComplete(_ context.Context, floor, frames int, _ time.Duration, err error) {
	result := "done"
	if err != nil {
		result = "stopped"
	}
	m.renders.WithLabelValues(strconv.Itoa(floor), result).Inc()
	m.renderFrames.Observe(float64(frames))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.inFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.inFlight.Dec()
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route).Observe(d.Seconds())
}

var (
	_ observability.RouteHooks  = (*Metrics)(nil)
	_ observability.RenderHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)
