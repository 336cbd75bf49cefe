// Package comm defines the message-passing contract the task queue is built
// on: a fixed set of addressable processes with tagged point-to-point
// send/receive, group broadcast and barrier, a blocking probe loop, and
// subgroup derivation. Implementations live in sub-packages; the in-process
// channel-backed one is comm/memory.
package comm
