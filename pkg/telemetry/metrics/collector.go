package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/xacmlcore/pkg/config"
)

// Collector owns the Prometheus registry and the metric groups of the
// decision engine.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	evaluation *EvaluationMetrics
}

// NewCollector creates and registers all metrics. If registry is nil a new
// registry is created. Missing namespace, subsystem and buckets fall back to
// the configuration defaults.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	engine, err := pdp.NewEngine(engCfg, src, reg, pdp.WithMetrics(collector.Evaluation()))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := *cfg
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if c.Subsystem == "" {
		c.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(c.DurationBuckets) == 0 {
		c.DurationBuckets = config.DefaultDurationBuckets
	}

	return &Collector{
		config:     &c,
		registry:   registry,
		evaluation: NewEvaluationMetrics(&c, registry),
	}
}

// Evaluation returns the decision engine metrics.
func (c *Collector) Evaluation() *EvaluationMetrics {
	return c.evaluation
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
