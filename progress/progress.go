package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the coordinator
// while it schedules a run. Fields are signed, although the scheduler only
// ever increments.
type Delta struct {
	Total     int
	Assigned  int
	Completed int
	Notified  int
}

// Progress keeps aggregated counters for a single task-queue run: how many
// tasks exist, how many have been handed out, how many results arrived and
// how many worker subgroups were told to stop. It is safe for concurrent
// use, although within one run only the coordinator updates it.
type Progress struct {
	// Identification, informative only.
	RunID     string
	StartedAt time.Time

	// Counters, modified via Update.
	TotalTasks     int
	AssignedTasks  int
	CompletedTasks int
	NotifiedGroups int

	mu       sync.Mutex
	onChange func(Progress)
}

// Update applies the supplied delta. If an onChange callback is registered
// it receives a copy of the updated counters outside the critical section so
// slow consumers (encoding, I/O) never block the scheduler.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.TotalTasks += d.Total
	p.AssignedTasks += d.Assigned
	p.CompletedTasks += d.Completed
	p.NotifiedGroups += d.Notified
	snapshot := p.snapshot()
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// snapshot copies the counters; callers must hold p.mu.
func (p *Progress) snapshot() Progress {
	return Progress{
		RunID:          p.RunID,
		StartedAt:      p.StartedAt,
		TotalTasks:     p.TotalTasks,
		AssignedTasks:  p.AssignedTasks,
		CompletedTasks: p.CompletedTasks,
		NotifiedGroups: p.NotifiedGroups,
	}
}

// Snapshot returns a consistent copy of the counters.
func (p *Progress) Snapshot() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// OnChange registers a callback invoked after every counter update.
func (p *Progress) OnChange(cb func(Progress)) {
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a new Progress tracker, embeds it in a derived
// context and returns both. The onChange callback may be nil.
func WithNewTracker(ctx context.Context, runID string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		RunID:     runID,
		StartedAt: time.Now(),
		onChange:  onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the tracker from ctx; ok is false when the context
// carries none.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx looks up the tracker in ctx (if any) and applies the delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
