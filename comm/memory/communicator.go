package memory

import (
	"context"
	"fmt"

	"github.com/cbehren/yt/comm"
	"github.com/cbehren/yt/internal/idgen"
)

// Reserved channels carry the collective traffic so it never collides with
// caller conversations. Callers use non-negative channel numbers.
const (
	bcastChannel   = -1
	barrierChannel = -2
)

// communicator is one process's view of a (sub)group. Ranks are local to the
// group; the group slice maps them to world ranks.
type communicator struct {
	system   *System
	id       string
	group    []int
	rank     int
	parent   *communicator
	released bool
}

func (c *communicator) Rank() int {
	return c.rank
}

func (c *communicator) Size() int {
	return len(c.group)
}

// world translates a local rank to a world rank.
func (c *communicator) world(rank int) int {
	return c.group[rank]
}

func (c *communicator) check(ranks ...int) error {
	if c.released {
		return fmt.Errorf("%w: group %s", ErrReleased, c.id)
	}
	for _, r := range ranks {
		if r < 0 || r >= len(c.group) {
			return fmt.Errorf("%w: rank %d of %d", ErrBadRank, r, len(c.group))
		}
	}
	return nil
}

func (c *communicator) Send(ctx context.Context, value interface{}, dest, channel int) error {
	if err := c.check(dest); err != nil {
		return err
	}
	box := c.system.inbox(route{dest: c.world(dest), channel: channel})
	select {
	case box <- newEnvelope(c.world(c.rank), value):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *communicator) Recv(ctx context.Context, source, channel int) (interface{}, error) {
	if err := c.check(source); err != nil {
		return nil, err
	}
	station := c.system.stations[c.world(c.rank)]
	want := c.world(source)

	// A message from the wanted source may already be pending from an
	// earlier probe or a skipped-over receive.
	queued := station.pending[channel]
	for i, e := range queued {
		if e.source == want {
			station.pending[channel] = append(queued[:i:i], queued[i+1:]...)
			return e.value, nil
		}
	}

	box := c.system.inbox(route{dest: c.world(c.rank), channel: channel})
	for {
		select {
		case e := <-box:
			if e.source == want {
				return e.value, nil
			}
			station.pending[channel] = append(station.pending[channel], e)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *communicator) Bcast(ctx context.Context, value interface{}, root int) (interface{}, error) {
	if err := c.check(root); err != nil {
		return nil, err
	}
	if len(c.group) == 1 {
		return value, nil
	}
	if c.rank == root {
		for rank := range c.group {
			if rank == root {
				continue
			}
			if err := c.Send(ctx, value, rank, bcastChannel); err != nil {
				return nil, err
			}
		}
		return value, nil
	}
	return c.Recv(ctx, root, bcastChannel)
}

func (c *communicator) Barrier(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	if len(c.group) == 1 {
		return nil
	}
	// Gather to local rank 0, then release everyone.
	if c.rank != 0 {
		if err := c.Send(ctx, nil, 0, barrierChannel); err != nil {
			return err
		}
		_, err := c.Recv(ctx, 0, barrierChannel)
		return err
	}
	for rank := 1; rank < len(c.group); rank++ {
		if _, err := c.Recv(ctx, rank, barrierChannel); err != nil {
			return err
		}
	}
	for rank := 1; rank < len(c.group); rank++ {
		if err := c.Send(ctx, nil, rank, barrierChannel); err != nil {
			return err
		}
	}
	return nil
}

func (c *communicator) ProbeLoop(ctx context.Context, channel int, handler comm.Handler) error {
	if err := c.check(); err != nil {
		return err
	}
	station := c.system.stations[c.world(c.rank)]
	box := c.system.inbox(route{dest: c.world(c.rank), channel: channel})
	for {
		var e *envelope
		if queued := station.pending[channel]; len(queued) > 0 {
			e = queued[0]
		} else {
			select {
			case e = <-box:
				station.pending[channel] = append(station.pending[channel], e)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		source, err := c.local(e.source)
		if err != nil {
			return err
		}
		signal, err := handler(ctx, source)
		if err != nil {
			return err
		}
		if signal == comm.Stop {
			return nil
		}
	}
}

// local translates a world rank back to a rank in this group.
func (c *communicator) local(world int) (int, error) {
	for rank, w := range c.group {
		if w == world {
			return rank, nil
		}
	}
	return 0, fmt.Errorf("%w: world rank %d not in group %s", ErrBadRank, world, c.id)
}

func (c *communicator) Push(members []int) (comm.Communicator, error) {
	if err := c.check(members...); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: empty member list", ErrBadGroup)
	}
	group := make([]int, len(members))
	rank := -1
	for i, member := range members {
		group[i] = c.world(member)
		if member == c.rank {
			rank = i
		}
	}
	if rank < 0 {
		return nil, fmt.Errorf("%w: caller rank %d not a member", ErrBadGroup, c.rank)
	}
	return &communicator{
		system: c.system,
		id:     idgen.New(),
		group:  group,
		rank:   rank,
		parent: c,
	}, nil
}

func (c *communicator) Pop() {
	// The world communicator outlives every run.
	if c.parent == nil {
		return
	}
	c.released = true
}

var _ comm.Communicator = (*communicator)(nil)
