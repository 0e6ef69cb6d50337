package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
)

const namespace = "devmentor"

var _ secondary.MetricsRecorder = &PrometheusRecorder{}

// PrometheusRecorder records checker metrics into its own registry
type PrometheusRecorder struct {
	registry *prometheus.Registry

	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	verdictsTotal     *prometheus.CounterVec
	teardownFailures  *prometheus.CounterVec
	queueDepth        prometheus.Gauge
	busyWorkers       prometheus.Gauge
	rateLimitHits     prometheus.Counter
}

// NewPrometheusRecorder creates a recorder with a fresh registry including Go runtime collectors
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sandbox_executions_total",
				Help:      "Total number of sandboxed executions by outcome",
			},
			[]string{"language", "outcome"},
		),
		executionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sandbox_execution_duration_ms",
				Help:      "Sandboxed execution duration in milliseconds, provisioning and teardown excluded",
				Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
			},
			[]string{"language"},
		),
		verdictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "grading_verdicts_total",
				Help:      "Total number of grading verdicts by final state",
			},
			[]string{"language", "state"},
		),
		teardownFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sandbox_teardown_failures_total",
				Help:      "Total number of sandbox resources that could not be released",
			},
			[]string{"stage"},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "check_queue_depth",
				Help:      "Current number of checks waiting in the intake queue",
			},
		),
		busyWorkers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "busy_workers",
				Help:      "Number of workers currently grading a check",
			},
		),
		rateLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Total number of submissions rejected by the rate limiter",
			},
		),
	}
}

// Handler exposes the registry in the Prometheus text format
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveExecution(language, outcome string, duration time.Duration) {
	p.executionsTotal.WithLabelValues(language, outcome).Inc()
	p.executionDuration.WithLabelValues(language).Observe(float64(duration.Milliseconds()))
}

func (p *PrometheusRecorder) IncTeardownFailure(stage string) {
	p.teardownFailures.WithLabelValues(stage).Inc()
}

func (p *PrometheusRecorder) ObserveVerdict(language, state string) {
	p.verdictsTotal.WithLabelValues(language, state).Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(depth int64) {
	p.queueDepth.Set(float64(depth))
}

func (p *PrometheusRecorder) IncBusyWorkers() {
	p.busyWorkers.Inc()
}

func (p *PrometheusRecorder) DecBusyWorkers() {
	p.busyWorkers.Dec()
}

func (p *PrometheusRecorder) IncRateLimited() {
	p.rateLimitHits.Inc()
}
