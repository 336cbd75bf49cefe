// Package taskqueue distributes an ordered list of independent, opaque tasks
// across worker processes with dynamic load balancing: a single coordinator
// owns the task list and hands out the next task to whichever worker
// subgroup asks first, so faster subgroups naturally receive more work.
//
// Two entry points are exposed. Run applies a work function to every task
// and returns the task-id-to-result map on all processes. Iterate yields
// tasks to caller code as a lazy, forward-only sequence, optionally
// collecting results into a caller-supplied sink.
//
// The queue is built on the comm.Communicator message-passing contract; it
// performs no fault detection and no reassignment — a process that vanishes
// mid-run stalls the coordinator indefinitely.
package taskqueue
