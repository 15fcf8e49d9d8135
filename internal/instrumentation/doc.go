// Package instrumentation provides OpenTelemetry metrics and tracing
// helpers for the forensic operations. Instrumentation is disabled by
// default; when no meter or tracer provider is installed the calls are
// no-ops, so library users pay nothing unless they opt in.
package instrumentation
