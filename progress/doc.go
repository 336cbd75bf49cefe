// Package progress provides a lightweight tracker for a single task-queue
// run. The tracker lives in the run's context – the coordinator updates the
// counters via the Delta helper on every assignment, result and stop
// notification, without requiring a global registry.
package progress
