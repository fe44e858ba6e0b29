// Package observability provides structured logging, metrics, and tracing
// for the demo API.
//
// This package implements:
//   - Structured logging with contextual fields (zap-based, json/logfmt/console)
//   - Prometheus collectors registered on an injected registry
//   - Distributed tracing through opentracing with a Jaeger backend
//   - Request correlation (request id, trace id, span id, tenant id) on log entries
package observability
