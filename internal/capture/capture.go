// Package capture drives the listen-and-record cycle over the pending
// combination sequence, one exclusive capture at a time.
package capture

import (
	"context"
	"time"
)

// Outcome classifies one bounded wait for an IR code.
type Outcome int

const (
	// Captured means a non-empty code arrived before the timeout.
	Captured Outcome = iota
	// NoSignal means the device explicitly reported nothing to read. The
	// combination is deliberately left blank, not an error.
	NoSignal
	// TimedOut means the bounded wait elapsed without a code.
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Captured:
		return "captured"
	case NoSignal:
		return "no_signal"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Result is the collaborator's answer to one capture request. Code is set
// only for Captured.
type Result struct {
	Outcome Outcome
	Code    string
}

// Learner is the hardware collaborator: the one suspension point of the run.
// AwaitCapture blocks for at most timeout; it must return promptly with
// ctx.Err() once ctx is cancelled. Send transmits a previously captured code.
type Learner interface {
	AwaitCapture(ctx context.Context, timeout time.Duration) (Result, error)
	Send(code string) error
}
