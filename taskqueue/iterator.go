package taskqueue

import (
	"context"
	"errors"

	"github.com/cbehren/yt/comm"
	"github.com/cbehren/yt/progress"
	"github.com/cbehren/yt/tracing"
)

// Slot is a write-once cell for one task's result. The iterator hands a
// fresh slot out with each task and reads it back right after the caller's
// step, so the caller never submits results directly. Ownership of the slot
// belongs to the caller for the duration of one iteration step only.
type Slot struct {
	value  interface{}
	stored bool
}

// Store writes the slot's value. A second write fails.
func (s *Slot) Store(value interface{}) error {
	if s.stored {
		return errors.New("slot already stored")
	}
	s.value = value
	s.stored = true
	return nil
}

// Value returns the stored value, nil when nothing was stored.
func (s *Slot) Value() interface{} {
	return s.value
}

// Iterator is a lazy, forward-only, non-restartable sequence of tasks
// produced by the dynamic scheduler. Use it scanner-style:
//
//	it, err := taskqueue.Iterate(ctx, c, tasks, taskqueue.WithSink(sink))
//	for it.Next() {
//	    _ = it.Slot().Store(process(it.Task()))
//	}
//	err = it.Err()
//
// The coordinator process yields no elements: its first Next drives the full
// dispatch loop. Iteration must always be driven to completion — breaking
// out early abandons the protocol and stalls the other processes.
type Iterator struct {
	ctx    context.Context
	world  comm.Communicator
	sub    comm.Communicator
	root   *rootQueue
	worker *workerQueue
	sink   map[int]interface{}
	span   *tracing.Span

	task interface{}
	slot *Slot
	err  error
	done bool
}

// Iterate partitions the processes of c and returns the dynamic iterator
// over tasks. Configuration failures surface here, before any group is
// formed or message sent.
func Iterate(ctx context.Context, c comm.Communicator, tasks []interface{}, opts ...Option) (*Iterator, error) {
	ctx, span := tracing.StartSpan(ctx, "taskqueue.Iterate", "INTERNAL")
	o := newOptions(opts...)
	p, err := partitionGroups(c.Size(), c.Rank(), o.jobs)
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}
	sub, err := c.Push(p.groups[p.index])
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}
	it := &Iterator{
		ctx:   ctx,
		world: c,
		sub:   sub,
		sink:  o.sink,
		span:  span,
	}
	if c.Rank() == 0 {
		progress.UpdateCtx(ctx, progress.Delta{Total: len(tasks)})
		it.root = newRootQueue(c, tasks, p.jobs())
	} else {
		it.worker = newWorkerQueue(c, sub)
	}
	return it, nil
}

// Next advances the iterator. It returns false when the sequence is
// exhausted or an error occurred; check Err afterwards.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if it.root != nil {
		it.finish(it.root.dispatch(it.ctx))
		return false
	}
	if it.slot != nil {
		if err := it.worker.submit(it.ctx, it.slot.Value()); err != nil {
			it.finish(err)
			return false
		}
		it.slot = nil
	}
	task, ok, err := it.worker.next(it.ctx)
	if err != nil || !ok {
		it.finish(err)
		return false
	}
	it.task = task
	if it.sink != nil {
		it.slot = &Slot{}
	}
	return true
}

// Task returns the current element.
func (it *Iterator) Task() interface{} {
	return it.task
}

// Slot returns the current element's result slot, nil when no sink was
// supplied.
func (it *Iterator) Slot() *Slot {
	return it.slot
}

// Err returns the first failure encountered, nil after a clean run.
func (it *Iterator) Err() error {
	return it.err
}

// finish tears the run down: with a sink, the coordinator's result map is
// broadcast and merged into every process's sink; the pushed subgroup is
// popped on every path.
func (it *Iterator) finish(err error) {
	it.done = true
	it.task, it.slot = nil, nil
	if err == nil && it.sink != nil {
		var value interface{}
		if it.root != nil {
			value = it.root.results
		}
		out, berr := it.world.Bcast(it.ctx, value, 0)
		if berr != nil {
			err = berr
		} else if results, ok := out.(map[int]interface{}); ok {
			for taskID, result := range results {
				it.sink[taskID] = result
			}
		} else {
			err = protocolErrorf("unexpected finalize payload %T", out)
		}
	}
	it.sub.Pop()
	it.err = err
	tracing.EndSpan(it.span, err)
}
