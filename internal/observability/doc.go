// Package observability provides logging and metrics for the ArbitrageVault
// BookFinder service.
//
// # Logging
//
// Structured logging is built on zerolog. NewLogger constructs a logger from
// LoggingConfig (level, format, output); the console format is intended for
// local development, JSON for everything else. The With*Context helpers attach
// common field sets so related log lines correlate:
//
//	logger := observability.NewLogger(cfg)
//	blog := observability.WithBatchContext(logger, batch.ID)
//	blog.Info().Msg("batch transition accepted")
//
// # Metrics
//
// Prometheus metrics are registered via promauto on the default registry.
// NewMetrics takes a namespace prefix and returns a Metrics value whose
// Record* methods are safe for concurrent use. The metrics server exposes
// them on a separate port from the API.
//
// # Context propagation
//
// The request ID travels through context.Context using the helpers in
// context.go, so the logging middleware can correlate every line of a request
// without threading extra parameters.
package observability
