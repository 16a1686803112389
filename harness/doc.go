// Package harness
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// End-to-end latency benchmark over a bounded MPSC channel.
//
// A run starts one consumer and P producers. Each producer sends K data
// commands stamped with the monotonic clock; the consumer turns every data
// command into a latency sample. A completion barrier releases the
// terminator only after every producer has finished, and the terminator then
// sends the quit sentinel (or closes an out-of-band quit signal). The
// consumer's latency log is frozen on quit, handed back through its result,
// and summarized.
//
// Producers and the consumer run either on dedicated OS threads ("thread")
// or as tasks on a fixed worker pool ("task"); the channel backend is picked
// by name. Neither choice changes the protocol.
package harness
