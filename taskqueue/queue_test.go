package taskqueue

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cbehren/yt/comm"
	"github.com/cbehren/yt/comm/memory"
	"github.com/cbehren/yt/progress"
)

// outcome is what one simulated process returned from a run.
type outcome struct {
	results map[int]interface{}
	err     error
}

// runAll drives every process of a fresh in-process system with fn and
// collects the per-rank outcomes.
func runAll(t *testing.T, processes int, fn func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error)) []outcome {
	t.Helper()
	system, err := memory.New(memory.Config{Processes: processes})
	if err != nil {
		t.Fatalf("failed to create system: %v", err)
	}
	outcomes := make([]outcome, processes)
	var wg sync.WaitGroup
	for rank := 0; rank < processes; rank++ {
		world, err := system.World(rank)
		if err != nil {
			t.Fatalf("world %d: %v", rank, err)
		}
		wg.Add(1)
		go func(rank int, c comm.Communicator) {
			defer wg.Done()
			results, err := fn(context.Background(), rank, c)
			outcomes[rank] = outcome{results: results, err: err}
		}(rank, world)
	}
	wg.Wait()
	return outcomes
}

func intTasks(values ...int) []interface{} {
	tasks := make([]interface{}, len(values))
	for i, v := range values {
		tasks[i] = v
	}
	return tasks
}

func double(task interface{}) interface{} {
	return task.(int) * 2
}

func TestRunCollectsEveryResult(t *testing.T) {
	tasks := intTasks(10, 20, 30, 40, 50)
	expected := map[int]interface{}{0: 20, 1: 40, 2: 60, 3: 80, 4: 100}

	outcomes := runAll(t, 5, func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error) {
		return Run(ctx, c, double, tasks)
	})
	for rank, out := range outcomes {
		assert.NoError(t, out.err, "rank %d", rank)
		assert.Equal(t, expected, out.results, "rank %d", rank)
	}
}

func TestRunEmptyTaskList(t *testing.T) {
	outcomes := runAll(t, 2, func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error) {
		return Run(ctx, c, double, nil)
	})
	for rank, out := range outcomes {
		assert.NoError(t, out.err, "rank %d", rank)
		assert.Empty(t, out.results, "rank %d", rank)
	}
}

func TestRunNotParallel(t *testing.T) {
	outcomes := runAll(t, 1, func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error) {
		return Run(ctx, c, double, intTasks(1))
	})
	assert.ErrorIs(t, outcomes[0].err, ErrNotParallel)
}

func TestRunTooManyJobs(t *testing.T) {
	outcomes := runAll(t, 3, func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error) {
		return Run(ctx, c, double, intTasks(1, 2), WithJobs(3))
	})
	for rank, out := range outcomes {
		assert.ErrorIs(t, out.err, ErrConfiguration, "rank %d", rank)
	}
}

func TestRunDefaultJobsMatchesExplicit(t *testing.T) {
	tasks := intTasks(1, 2, 3, 4, 5, 6, 7)

	implicit := runAll(t, 4, func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error) {
		return Run(ctx, c, double, tasks)
	})
	explicit := runAll(t, 4, func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error) {
		return Run(ctx, c, double, tasks, WithJobs(3))
	})
	for rank := 0; rank < 4; rank++ {
		assert.NoError(t, implicit[rank].err)
		assert.NoError(t, explicit[rank].err)
		assert.Equal(t, explicit[rank].results, implicit[rank].results, "rank %d", rank)
	}
}

func TestRunAssignsEachTaskExactlyOnce(t *testing.T) {
	const taskCount = 20
	tasks := make([]interface{}, taskCount)
	for i := range tasks {
		tasks[i] = i
	}

	var mu sync.Mutex
	seen := map[int]int{}
	fn := func(task interface{}) interface{} {
		mu.Lock()
		seen[task.(int)]++
		mu.Unlock()
		return task
	}

	// Singleton subgroups so each task is applied by exactly one process.
	outcomes := runAll(t, 4, func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error) {
		return Run(ctx, c, fn, tasks, WithJobs(3))
	})
	for rank, out := range outcomes {
		assert.NoError(t, out.err, "rank %d", rank)
		assert.Len(t, out.results, taskCount, "rank %d", rank)
	}
	for i := 0; i < taskCount; i++ {
		assert.Equal(t, 1, seen[i], "task %d", i)
		assert.Equal(t, i, outcomes[0].results[i], "task %d", i)
	}
}

func TestRunMultiMemberSubgroups(t *testing.T) {
	tasks := intTasks(3, 1, 4, 1, 5, 9, 2, 6)
	expected := map[int]interface{}{0: 6, 1: 2, 2: 8, 3: 2, 4: 10, 5: 18, 6: 4, 7: 12}

	// 2 jobs across 4 workers: subgroups of two members each replicate the
	// work function; the result map must be unaffected.
	outcomes := runAll(t, 5, func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error) {
		return Run(ctx, c, double, tasks, WithJobs(2))
	})
	for rank, out := range outcomes {
		assert.NoError(t, out.err, "rank %d", rank)
		assert.Equal(t, expected, out.results, "rank %d", rank)
	}
}

func TestRunReportsProgress(t *testing.T) {
	tasks := intTasks(1, 2, 3, 4, 5, 6)
	var tracker *progress.Progress

	outcomes := runAll(t, 4, func(ctx context.Context, rank int, c comm.Communicator) (map[int]interface{}, error) {
		if rank == 0 {
			ctx, tracker = progress.WithNewTracker(ctx, "test-run", nil)
		}
		return Run(ctx, c, double, tasks)
	})
	for rank, out := range outcomes {
		assert.NoError(t, out.err, "rank %d", rank)
	}

	snapshot := tracker.Snapshot()
	assert.Equal(t, "test-run", snapshot.RunID)
	assert.Equal(t, len(tasks), snapshot.TotalTasks)
	assert.Equal(t, len(tasks), snapshot.AssignedTasks)
	assert.Equal(t, len(tasks), snapshot.CompletedTasks)
	assert.Equal(t, 3, snapshot.NotifiedGroups)
}
