package taskqueue

import (
	"context"
	"fmt"

	"github.com/cbehren/yt/comm"
	"github.com/cbehren/yt/progress"
	"github.com/cbehren/yt/tracing"
)

// WorkFunc is the domain callable applied to each task. The result must be
// serializable by the communication layer.
type WorkFunc func(task interface{}) interface{}

// Run distributes tasks dynamically across worker subgroups, applies fn to
// each task and returns the task-id-to-result map. Collective: every process
// of c must call it with the same tasks and options, and every process
// returns the same map. Callers must treat the returned map as read-only.
//
// Configuration failures surface before any group is formed or message sent.
func Run(ctx context.Context, c comm.Communicator, fn WorkFunc, tasks []interface{}, opts ...Option) (results map[int]interface{}, err error) {
	ctx, span := tracing.StartSpan(ctx, "taskqueue.Run", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	o := newOptions(opts...)
	p, err := partitionGroups(c.Size(), c.Rank(), o.jobs)
	if err != nil {
		return nil, err
	}
	span.WithAttributes(map[string]string{
		"queue.tasks": fmt.Sprintf("%d", len(tasks)),
		"queue.jobs":  fmt.Sprintf("%d", p.jobs()),
	})

	sub, err := c.Push(p.groups[p.index])
	if err != nil {
		return nil, err
	}
	defer sub.Pop()

	if c.Rank() == 0 {
		progress.UpdateCtx(ctx, progress.Delta{Total: len(tasks)})
		return newRootQueue(c, tasks, p.jobs()).run(ctx)
	}
	return newWorkerQueue(c, sub).run(ctx, fn)
}
