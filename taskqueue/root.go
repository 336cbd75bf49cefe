package taskqueue

import (
	"context"
	"fmt"

	"github.com/cbehren/yt/comm"
	"github.com/cbehren/yt/progress"
	"github.com/cbehren/yt/tracing"
)

// rootQueue is the coordinator side of one run. It owns the authoritative
// task list, tracks in-flight assignments and collected results, and decides
// when every worker subgroup has been told to stop. Constructed per run and
// discarded after finalize; all state is mutated serially inside the probe
// loop, so no locking is needed.
type rootQueue struct {
	comm  comm.Communicator
	tasks []interface{}
	jobs  int

	// assignments maps a subgroup leader's rank to the task id most
	// recently handed to it; overwritten on each new assignment.
	assignments map[int]int
	results     map[int]interface{}

	current   int
	remaining int
	notified  int
}

func newRootQueue(c comm.Communicator, tasks []interface{}, jobs int) *rootQueue {
	return &rootQueue{
		comm:        c,
		tasks:       tasks,
		jobs:        jobs,
		assignments: make(map[int]int),
		results:     make(map[int]interface{}, len(tasks)),
		remaining:   len(tasks),
	}
}

// assignTask answers one task request. When tasks remain, the lowest
// unassigned task id goes to the requester; otherwise the requester is told
// to stop and counted as notified.
func (q *rootQueue) assignTask(ctx context.Context, source int) error {
	var msg message
	if q.remaining == 0 {
		msg = message{Kind: kindEnd}
		q.notified++
		progress.UpdateCtx(ctx, progress.Delta{Notified: 1})
	} else {
		taskID := q.current
		q.assignments[source] = taskID
		q.current++
		q.remaining--
		msg = message{Kind: kindTask, Value: q.tasks[taskID]}
		progress.UpdateCtx(ctx, progress.Delta{Assigned: 1})
	}
	return q.comm.Send(ctx, msg, source, replyChannel)
}

// insertResult stores a result under the task id last assigned to source.
func (q *rootQueue) insertResult(ctx context.Context, source int, value interface{}) error {
	taskID, ok := q.assignments[source]
	if !ok {
		return protocolErrorf("result from %d without an assignment", source)
	}
	q.results[taskID] = value
	progress.UpdateCtx(ctx, progress.Delta{Completed: 1})
	return nil
}

// handleAssignment services one inbound message from a subgroup leader.
func (q *rootQueue) handleAssignment(ctx context.Context, source int) (comm.Signal, error) {
	value, err := q.comm.Recv(ctx, source, requestChannel)
	if err != nil {
		return comm.Stop, err
	}
	msg, err := asMessage(value)
	if err != nil {
		return comm.Stop, err
	}
	switch msg.Kind {
	case kindResult:
		err = q.insertResult(ctx, source, msg.Value)
	case kindTaskRequest:
		err = q.assignTask(ctx, source)
	default:
		err = protocolErrorf("unexpected %v message from %d", msg.Kind, source)
	}
	if err != nil {
		return comm.Stop, err
	}
	if q.notified >= q.jobs {
		return comm.Stop, nil
	}
	return comm.Continue, nil
}

// dispatch drives the probe loop until every worker subgroup has been
// notified to stop.
func (q *rootQueue) dispatch(ctx context.Context) (err error) {
	ctx, span := tracing.StartSpan(ctx, "taskqueue.dispatch", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{
		"queue.tasks": fmt.Sprintf("%d", len(q.tasks)),
		"queue.jobs":  fmt.Sprintf("%d", q.jobs),
	})
	return q.comm.ProbeLoop(ctx, requestChannel, q.handleAssignment)
}

// finalize broadcasts the collected results to every process.
func (q *rootQueue) finalize(ctx context.Context) (map[int]interface{}, error) {
	if _, err := q.comm.Bcast(ctx, q.results, 0); err != nil {
		return nil, err
	}
	return q.results, nil
}

// run drives dispatch to completion and returns the finalized result map.
func (q *rootQueue) run(ctx context.Context) (map[int]interface{}, error) {
	if err := q.dispatch(ctx); err != nil {
		return nil, err
	}
	return q.finalize(ctx)
}
