package comm

import (
	"context"
)

// Signal tells a probe loop whether to keep servicing messages.
type Signal int

const (
	// Continue keeps the probe loop waiting for the next message.
	Continue Signal = iota

	// Stop makes the probe loop return after the current message.
	Stop
)

// Handler is invoked by ProbeLoop once per arriving message with the rank of
// the sender. The handler is expected to receive the message itself (via
// Recv with the supplied source) before returning. Returning Stop ends the
// loop; returning an error aborts it.
type Handler func(ctx context.Context, source int) (Signal, error)

// Communicator is a fixed group of cooperating processes with tagged
// point-to-point messaging and group collectives. Ranks are zero-based and
// local to the communicator's group.
//
// All blocking operations honour context cancellation. The communicator
// itself never imposes timeouts.
type Communicator interface {
	// Rank returns the caller's rank within this communicator's group.
	Rank() int

	// Size returns the number of processes in this communicator's group.
	Size() int

	// Send delivers value to dest on the given conversation channel.
	Send(ctx context.Context, value interface{}, dest, channel int) error

	// Recv blocks until a message from source arrives on the given channel
	// and returns its value. Messages from other sources are left queued.
	Recv(ctx context.Context, source, channel int) (interface{}, error)

	// Bcast propagates the root rank's value to every group member and
	// returns it on all of them. Collective: every member must call it.
	Bcast(ctx context.Context, value interface{}, root int) (interface{}, error)

	// Barrier blocks until every group member has entered it. Collective.
	Barrier(ctx context.Context) error

	// ProbeLoop blocks, invoking handler for each message arriving on the
	// given channel, until the handler returns Stop or an error.
	ProbeLoop(ctx context.Context, channel int, handler Handler) error

	// Push derives a subgroup communicator from this one. Members are given
	// as ranks in this communicator, order preserved; the caller must be
	// among them. The subgroup is independent: its collectives involve only
	// its members.
	Push(members []int) (Communicator, error)

	// Pop releases a communicator obtained from Push. Further operations on
	// the popped communicator fail. Collective in spirit: every member is
	// expected to pop symmetrically when the run that pushed it ends.
	Pop()
}
