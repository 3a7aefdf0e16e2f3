// Package telemetry groups the observability packages of xacmlcore.
//
//   - logging: slog loggers with request and rule set context
//   - metrics: Prometheus metrics for decision requests and reloads
//   - tracing: OpenTelemetry spans per decision request
//   - health: liveness and readiness endpoints
//
// Every package is optional: the decision engine records nothing unless it
// is given a metrics recorder or tracer.
package telemetry
