// Package metrics exposes Prometheus metrics of the decision engine.
//
// A Collector registers every metric on one registry:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
//
// The engine records through collector.Evaluation(). Rule set names are the
// only free-form label, bounded by the engine's rule set limit.
package metrics
