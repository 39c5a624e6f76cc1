package scheduler

import (
	"fmt"
	"time"
)

// TimedCommand is one entry of a session: a payload and the offset from
// session start at which it is due. It is never mutated once built.
type TimedCommand struct {
	// Timestamp is the offset from session start. Never negative.
	Timestamp time.Duration
	// Command is the text payload, normally ending in a line feed.
	Command string
}

// Seconds returns the timestamp in seconds.
func (c TimedCommand) Seconds() float64 {
	return c.Timestamp.Seconds()
}

func (c TimedCommand) String() string {
	return fmt.Sprintf("TimedCommand(t=%gs, msg=%q)", c.Seconds(), c.Command)
}

// Transport is the connection the scheduler drives. pomacli.Client
// implements it.
type Transport interface {
	IsConnected() bool
	Send(command string) error
	Receive(timeout time.Duration) (string, error)
}

// ConfirmFunc asks the operator whether the session should go on after a
// failed send.
type ConfirmFunc func(prompt string) bool

// AlwaysConfirm answers yes without asking.
func AlwaysConfirm(string) bool { return true }

// NeverConfirm answers no without asking. It is the default, so a
// scheduler built without WithConfirm or WithAssumeYes stops at the first
// failed send.
func NeverConfirm(string) bool { return false }

// Observer is notified after every attempted command.
type Observer interface {
	CommandDone(index, total int, cmd TimedCommand, sent bool)
}

// AbortReason tells why a session stopped before its last command.
type AbortReason int

const (
	AbortNone AbortReason = iota
	AbortConnectionLost
	AbortDeclined
	AbortInterrupted
)

func (r AbortReason) String() string {
	switch r {
	case AbortNone:
		return "none"
	case AbortConnectionLost:
		return "connection lost"
	case AbortDeclined:
		return "declined after send failure"
	case AbortInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("AbortReason(%d)", int(r))
	}
}

// Report summarizes a finished session.
type Report struct {
	Total     int
	Attempted int
	Sent      int
	Failed    int
	// Responses counts non-empty responses. An empty response and a missing
	// one are not told apart.
	Responses int
	Elapsed   time.Duration
	Abort     AbortReason
}
