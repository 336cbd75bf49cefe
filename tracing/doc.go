// Package tracing is a thin OpenTelemetry wrapper used to instrument task
// queue runs. It is kept in a separate package so applications that do not
// require tracing can leave it uninitialised – spans are then no-ops.
package tracing
