// Package logging builds log/slog loggers for xacmlcore.
//
// Loggers write JSON or text records at a configured level. Records logged
// with a context pick up the request ID, the rule set name and the active
// OpenTelemetry span:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "request evaluated", "rules", 3)
//	// {"level":"INFO","msg":"request evaluated","rules":3,"request_id":"req-123"}
package logging
