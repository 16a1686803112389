// File: api/command.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Command protocol carried by the benchmark channel.

package api

import "time"

// CommandKind tags the variant held by a Command.
type CommandKind uint8

const (
	// KindData carries a capture timestamp.
	KindData CommandKind = iota + 1
	// KindQuit marks end-of-stream for the consumer.
	KindQuit
)

func (k CommandKind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command is the closed set of messages accepted by a Sender.
// Values are built with Data or Quit and are not modified afterwards.
type Command struct {
	// CapturedAt holds the producer clock reading, including Go's monotonic
	// component, taken immediately before Send.
	CapturedAt time.Time
	// Seq is the per-producer sequence number, starting at 0.
	Seq uint64
	// Producer identifies the sending unit.
	Producer int
	Kind     CommandKind
}

// Data builds a data command stamped with capturedAt.
func Data(producer int, seq uint64, capturedAt time.Time) Command {
	return Command{
		Kind:       KindData,
		Producer:   producer,
		Seq:        seq,
		CapturedAt: capturedAt,
	}
}

// Quit builds the termination sentinel.
func Quit() Command {
	return Command{Kind: KindQuit}
}

// IsQuit reports whether c is the termination sentinel.
func (c Command) IsQuit() bool { return c.Kind == KindQuit }
