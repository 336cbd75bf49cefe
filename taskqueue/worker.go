package taskqueue

import (
	"context"

	"github.com/cbehren/yt/comm"
)

// workerQueue is the agent run by every non-coordinator process. Only the
// subgroup leader (local rank 0) exchanges messages with the coordinator;
// tasks reach the other members through a subgroup broadcast and a barrier
// keeps the subgroup in lockstep between tasks.
type workerQueue struct {
	comm comm.Communicator
	sub  comm.Communicator
}

func newWorkerQueue(world, sub comm.Communicator) *workerQueue {
	return &workerQueue{comm: world, sub: sub}
}

// next obtains the subgroup's next task. The third return reports transport
// or protocol failure; ok == false without an error means the coordinator
// signalled end of work and iteration must stop.
func (q *workerQueue) next(ctx context.Context) (task interface{}, ok bool, err error) {
	var value interface{} = message{Kind: kindTaskRequest}
	if q.sub.Rank() == 0 {
		if err := q.comm.Send(ctx, value, 0, requestChannel); err != nil {
			return nil, false, err
		}
		if value, err = q.comm.Recv(ctx, 0, replyChannel); err != nil {
			return nil, false, err
		}
	}
	if value, err = q.sub.Bcast(ctx, value, 0); err != nil {
		return nil, false, err
	}
	msg, err := asMessage(value)
	if err != nil {
		return nil, false, err
	}
	switch msg.Kind {
	case kindEnd:
		return nil, false, nil
	case kindTask:
		return msg.Value, true, nil
	}
	return nil, false, protocolErrorf("unexpected %v reply", msg.Kind)
}

// submit sends a task's result to the coordinator and synchronizes the
// subgroup so no member races ahead to a new task.
func (q *workerQueue) submit(ctx context.Context, result interface{}) error {
	if q.sub.Rank() == 0 {
		msg := message{Kind: kindResult, Value: result}
		if err := q.comm.Send(ctx, msg, 0, requestChannel); err != nil {
			return err
		}
	}
	return q.sub.Barrier(ctx)
}

// finalize receives the coordinator's broadcast result map.
func (q *workerQueue) finalize(ctx context.Context) (map[int]interface{}, error) {
	value, err := q.comm.Bcast(ctx, nil, 0)
	if err != nil {
		return nil, err
	}
	results, ok := value.(map[int]interface{})
	if !ok {
		return nil, protocolErrorf("unexpected finalize payload %T", value)
	}
	return results, nil
}

// run applies fn to every task handed to this subgroup, submitting each
// result, until the coordinator signals end of work.
func (q *workerQueue) run(ctx context.Context, fn WorkFunc) (map[int]interface{}, error) {
	for {
		task, ok, err := q.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := q.submit(ctx, fn(task)); err != nil {
			return nil, err
		}
	}
	return q.finalize(ctx)
}
