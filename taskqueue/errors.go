package taskqueue

import (
	"errors"
	"fmt"
)

var (
	// ErrNotParallel indicates the communicator reports a single process,
	// leaving no room for a separate coordinator.
	ErrNotParallel = errors.New("task queue requires more than one process")

	// ErrConfiguration indicates an unsatisfiable job count.
	ErrConfiguration = errors.New("invalid task queue configuration")

	// ErrProtocol indicates a message that is not part of the
	// request/assign/result protocol. Fatal; never retried.
	ErrProtocol = errors.New("task queue protocol violation")
)

func protocolErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}
