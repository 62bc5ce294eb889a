package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "appbuilder"

// Outcome labels for finished generations.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// OtherModel is the model label for names not registered with AllowModels.
const OtherModel = "other"

// Collector owns the generation metrics and the registry they live in.
// A nil or disabled Collector records nothing.
//
// Metrics:
//   - appbuilder_generation_attempts_total: dispatch attempts by model and result kind;
//     models not registered with AllowModels are counted as "other"
//   - appbuilder_generation_duration_seconds: end-to-end generation time by outcome
//   - appbuilder_generation_retries_total: backoff retries taken
//   - appbuilder_http_requests_total: API requests by method, route and status
//   - appbuilder_http_request_duration_seconds: API latency by route
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	modelsMu sync.RWMutex
	models   map[string]struct{}

	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector registers the generation metrics with registry. A nil registry
// gets a fresh one carrying the Go and process collectors.
func NewCollector(enabled bool, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Collector{
		enabled:  enabled,
		registry: registry,
		models:   map[string]struct{}{},
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "attempts_total",
				Help:      "Model dispatch attempts by model and result kind",
			},
			[]string{"model", "kind"},
		),
		// LLM generations run from a few seconds up to the timeout bound.
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "duration_seconds",
				Help:      "End-to-end generation time in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "retries_total",
				Help:      "Retries scheduled after a rate-limited attempt",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "API requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "API request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	registry.MustRegister(c.attempts, c.duration, c.retries, c.httpRequests, c.httpDuration)
	return c
}

// AllowModels registers model names that get their own label value. Model
// names come from API callers, so anything else is folded into OtherModel.
func (c *Collector) AllowModels(names ...string) {
	if c == nil {
		return
	}
	c.modelsMu.Lock()
	defer c.modelsMu.Unlock()
	for _, n := range names {
		if n != "" {
			c.models[n] = struct{}{}
		}
	}
}

func (c *Collector) modelLabel(model string) string {
	c.modelsMu.RLock()
	defer c.modelsMu.RUnlock()
	if _, ok := c.models[model]; ok {
		return model
	}
	return OtherModel
}

// RecordAttempt counts one dispatch. kind is "ok" or a failure kind.
func (c *Collector) RecordAttempt(model, kind string) {
	if c == nil || !c.enabled {
		return
	}
	c.attempts.WithLabelValues(c.modelLabel(model), kind).Inc()
}

// RecordRetry counts one scheduled retry.
func (c *Collector) RecordRetry() {
	if c == nil || !c.enabled {
		return
	}
	c.retries.Inc()
}

// RecordGeneration observes the total time of a finished generation.
func (c *Collector) RecordGeneration(outcome string, d time.Duration) {
	if c == nil || !c.enabled {
		return
	}
	c.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordHTTP counts one API request. route is the matched pattern, not the raw path.
func (c *Collector) RecordHTTP(method, route string, status int, d time.Duration) {
	if c == nil || !c.enabled {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Registry returns the registry backing c.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler exposes the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
