// Package tracing provides OpenTelemetry tracing for the decision engine.
//
// Spans are exported over OTLP gRPC. A disabled configuration yields a noop
// tracer, so callers never branch on whether tracing is on:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "pdp.Evaluate")
//	defer span.End()
//
// # Sampling
//
//   - always: sample every trace
//   - never: sample no trace
//   - ratio: sample a fraction of traces by trace ID
//
// Every sampler follows the decision of a parent span when there is one.
package tracing
