// Package memory implements comm.Communicator for processes simulated
// inside a single address space: one goroutine per process, buffered channel
// mailboxes per destination and conversation channel, and collectives built
// from the same point-to-point primitive on reserved channels. It exists so
// the task queue can run and be tested without an external transport.
package memory
