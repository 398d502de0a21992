// Package observability provides structured logging, Prometheus metrics,
// health checks, and graceful shutdown handling.
package observability
