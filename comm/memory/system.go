package memory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbehren/yt/comm"
	"github.com/cbehren/yt/internal/clock"
	"github.com/cbehren/yt/internal/idgen"
)

var (
	// ErrReleased indicates an operation on a popped communicator.
	ErrReleased = errors.New("communicator released")

	// ErrBadRank indicates a rank outside the communicator's group.
	ErrBadRank = errors.New("rank out of range")

	// ErrBadGroup indicates an invalid member list passed to Push.
	ErrBadGroup = errors.New("invalid group members")
)

// Config for the in-process communication system.
type Config struct {
	// Processes is the number of simulated processes.
	Processes int

	// MailboxBuffer is the capacity of each per-process, per-channel
	// mailbox. Sends block once the buffer is full.
	MailboxBuffer int
}

// DefaultConfig returns a standard configuration for the in-process system.
func DefaultConfig() Config {
	return Config{
		Processes:     2,
		MailboxBuffer: 64,
	}
}

// envelope is one in-flight message. The source is a world rank.
type envelope struct {
	id        string
	source    int
	value     interface{}
	createdAt time.Time
}

// route addresses a mailbox: destination world rank plus conversation
// channel.
type route struct {
	dest    int
	channel int
}

// System simulates a fixed set of processes inside one address space. Each
// process is expected to be driven by exactly one goroutine, which obtains
// its world communicator via World and derives subgroups from it.
//
// Values cross process boundaries by reference, not by copy; receivers must
// treat them as read-only.
type System struct {
	config Config

	mu      sync.Mutex
	inboxes map[route]chan *envelope

	stations []*station
	worlds   []*communicator
}

// station is the receive side of one process: messages pulled from a mailbox
// but not yet consumed by a source-selective Recv. Touched only by the
// owning process's goroutine, so it needs no lock.
type station struct {
	pending map[int][]*envelope
}

// New creates an in-process system with config.Processes members.
func New(config Config) (*System, error) {
	if config.Processes < 1 {
		return nil, fmt.Errorf("%w: %d processes", ErrBadGroup, config.Processes)
	}
	if config.MailboxBuffer <= 0 {
		config.MailboxBuffer = DefaultConfig().MailboxBuffer
	}
	s := &System{
		config:  config,
		inboxes: make(map[route]chan *envelope),
	}
	group := make([]int, config.Processes)
	for i := 0; i < config.Processes; i++ {
		s.stations = append(s.stations, &station{pending: make(map[int][]*envelope)})
		group[i] = i
	}
	for i := 0; i < config.Processes; i++ {
		s.worlds = append(s.worlds, &communicator{
			system: s,
			id:     idgen.New(),
			group:  group,
			rank:   i,
		})
	}
	return s, nil
}

// Size returns the number of simulated processes.
func (s *System) Size() int {
	return s.config.Processes
}

// World returns the world communicator of one process. The same instance is
// returned on every call.
func (s *System) World(rank int) (comm.Communicator, error) {
	if rank < 0 || rank >= s.config.Processes {
		return nil, fmt.Errorf("%w: world rank %d of %d", ErrBadRank, rank, s.config.Processes)
	}
	return s.worlds[rank], nil
}

// inbox returns the mailbox for a route, creating it on first use.
func (s *System) inbox(r route) chan *envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	box, ok := s.inboxes[r]
	if !ok {
		box = make(chan *envelope, s.config.MailboxBuffer)
		s.inboxes[r] = box
	}
	return box
}

// newEnvelope stamps an outgoing value with id, source and creation time.
func newEnvelope(source int, value interface{}) *envelope {
	return &envelope{
		id:        idgen.New(),
		source:    source,
		value:     value,
		createdAt: clock.Now(),
	}
}
