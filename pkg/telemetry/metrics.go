package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	kerrors "github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/renderer"
	"github.com/vango-dev/kinetic/pkg/scheduler"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "kinetic").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush and render durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "kinetic",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records runtime activity. It implements scheduler.Observer,
// host.Counter and renderer.Observer; all methods are safe for concurrent
// use, so one value can serve every session of a server.
type Metrics struct {
	flushes        prometheus.Counter
	flushesAborted prometheus.Counter
	flushDuration  prometheus.Histogram
	jobsRun        prometheus.Counter
	jobsDeduped    prometheus.Counter

	hostOps *prometheus.CounterVec

	renders        *prometheus.CounterVec
	renderErrors   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec

	activeSessions prometheus.Gauge
	framesSent     prometheus.Counter
	bytesSent      prometheus.Counter
	protocolErrors *prometheus.CounterVec
}

var (
	_ scheduler.Observer = (*Metrics)(nil)
	_ host.Counter       = (*Metrics)(nil)
	_ renderer.Observer  = (*Metrics)(nil)
)

// NewMetrics registers the runtime collectors. Registering twice on the same
// registry panics, as with any promauto collector.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if len(config.Buckets) == 0 {
		config.Buckets = prometheus.DefBuckets
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushesAborted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_flushes_aborted_total",
			Help:        "Total number of flushes aborted by a panicking job",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		jobsRun: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_jobs_run_total",
			Help:        "Total number of scheduler jobs run",
			ConstLabels: config.ConstLabels,
		}),

		jobsDeduped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_jobs_deduplicated_total",
			Help:        "Total number of enqueues collapsed into an already queued job",
			ConstLabels: config.ConstLabels,
		}),

		hostOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_operations_total",
			Help:        "Total number of host adapter operations",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_renders_total",
			Help:        "Total number of component renders",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_render_errors_total",
			Help:        "Total number of failed component renders",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "code"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_render_duration_seconds",
			Help:        "Component render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected sessions",
			ConstLabels: config.ConstLabels,
		}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of frames sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_bytes_sent_total",
			Help:        "Total number of frame bytes sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "protocol_errors_total",
			Help:        "Total number of rejected client frames",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// ObserveFlush implements scheduler.Observer.
func (m *Metrics) ObserveFlush(stats scheduler.FlushStats) {
	m.flushes.Inc()
	if stats.Aborted {
		m.flushesAborted.Inc()
	}
	m.flushDuration.Observe(stats.Duration.Seconds())
	m.jobsRun.Add(float64(stats.Ran))
	if d := stats.Queued - stats.Unique; d > 0 {
		m.jobsDeduped.Add(float64(d))
	}
}

// CountOp implements host.Counter.
func (m *Metrics) CountOp(op host.Op) {
	m.hostOps.WithLabelValues(string(op)).Inc()
}

// ObserveRender implements renderer.Observer.
func (m *Metrics) ObserveRender(component string, d time.Duration, err error) {
	m.renders.WithLabelValues(component).Inc()
	m.renderDuration.WithLabelValues(component).Observe(d.Seconds())
	if err != nil {
		m.renderErrors.WithLabelValues(component, errorCode(err)).Inc()
	}
}

// SessionStarted increments the active session gauge.
func (m *Metrics) SessionStarted() { m.activeSessions.Inc() }

// SessionEnded decrements the active session gauge.
func (m *Metrics) SessionEnded() { m.activeSessions.Dec() }

// FrameSent records one outgoing frame of n bytes.
func (m *Metrics) FrameSent(n int) {
	m.framesSent.Inc()
	m.bytesSent.Add(float64(n))
}

// ProtocolError records a rejected client frame.
func (m *Metrics) ProtocolError(err error) {
	m.protocolErrors.WithLabelValues(errorCode(err)).Inc()
}

func errorCode(err error) string {
	if code := kerrors.Code(err); code != "" {
		return code
	}
	return "unknown"
}
