package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/xacmlcore/pkg/config"
)

// EvaluationMetrics tracks decision request evaluation.
//
// Metrics:
//   - xacmlcore_pdp_requests_total: Decision requests by outcome
//   - xacmlcore_pdp_request_duration_seconds: Request evaluation duration
//   - xacmlcore_pdp_rule_decisions_total: Rule decisions by rule set, decision and status
//   - xacmlcore_pdp_attribute_resolutions_total: Attribute cache hits and misses
//   - xacmlcore_pdp_rule_set_reloads_total: Rule set reloads by result
//   - xacmlcore_pdp_rule_sets_loaded: Number of loaded rule sets
//
// All methods are safe to call on a nil *EvaluationMetrics, which records
// nothing.
type EvaluationMetrics struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     prometheus.Histogram
	ruleDecisionsTotal  *prometheus.CounterVec
	attributeResolution *prometheus.CounterVec
	reloadsTotal        *prometheus.CounterVec
	ruleSetsLoaded      prometheus.Gauge
}

// NewEvaluationMetrics creates and registers evaluation metrics with the
// provided registry.
func NewEvaluationMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *EvaluationMetrics {
	m := &EvaluationMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of decision requests",
			},
			[]string{"outcome"},
		),

		requestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of decision request evaluation in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		ruleDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_decisions_total",
				Help:      "Total number of rule decisions",
			},
			[]string{"rule_set", "decision", "status"},
		),

		attributeResolution: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "attribute_resolutions_total",
				Help:      "Total number of attribute resolutions by cache result",
			},
			[]string{"result"},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_set_reloads_total",
				Help:      "Total number of rule set reloads",
			},
			[]string{"result"},
		),

		ruleSetsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_sets_loaded",
				Help:      "Number of rule sets currently loaded",
			},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.ruleDecisionsTotal,
		m.attributeResolution,
		m.reloadsTotal,
		m.ruleSetsLoaded,
	)

	return m
}

// RecordRequest records one evaluated request. outcome is "ok" or "error".
func (m *EvaluationMetrics) RecordRequest(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.requestDuration.Observe(duration.Seconds())
}

// RecordRuleDecision records the decision of one rule. status is empty
// unless the decision is Indeterminate.
//
// Example:
//
//	m.RecordRuleDecision("records", "Indeterminate", "missing-attribute")
func (m *EvaluationMetrics) RecordRuleDecision(ruleSet, decision, status string) {
	if m == nil {
		return
	}
	if status == "" {
		status = "ok"
	}
	m.ruleDecisionsTotal.WithLabelValues(ruleSet, decision, status).Inc()
}

// RecordAttributeResolutions adds the cache statistics of one request.
func (m *EvaluationMetrics) RecordAttributeResolutions(hits, misses int) {
	if m == nil {
		return
	}
	if hits > 0 {
		m.attributeResolution.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		m.attributeResolution.WithLabelValues("miss").Add(float64(misses))
	}
}

// RecordReload records a rule set reload and, on success, the number of
// loaded rule sets.
func (m *EvaluationMetrics) RecordReload(err error, ruleSets int) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.reloadsTotal.WithLabelValues("success").Inc()
	m.ruleSetsLoaded.Set(float64(ruleSets))
}
