// Package state defines the responder engine's run-state: a small state
// machine ensuring a stop request is observed exactly once and transitions
// the engine from serving to drained.
package state

import "sync/atomic"

// RunState is the lifecycle state of a running responder engine.
type RunState int32

const (
	// Running is the normal serving state: the receive loop answers queries
	// and the announce/leave queues drain on their own schedule.
	Running RunState = iota
	// StopRequested means Stop has been called but the goodbye burst and
	// socket teardown have not yet completed.
	StopRequested
	// Stopped means the engine has sent its goodbye records (if any) and
	// closed its transport; no further sends will occur.
	Stopped
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "Running"
	case StopRequested:
		return "StopRequested"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// RunFlag is an atomic RunState, safe to read from the receive loop while
// written from Stop.
type RunFlag struct {
	v int32
}

// NewRunFlag returns a RunFlag initialized to Running.
func NewRunFlag() *RunFlag {
	f := &RunFlag{}
	f.Set(Running)
	return f
}

// Get returns the current state.
func (f *RunFlag) Get() RunState { return RunState(atomic.LoadInt32(&f.v)) }

// Set stores a new state.
func (f *RunFlag) Set(s RunState) { atomic.StoreInt32(&f.v, int32(s)) }

// RequestStop transitions Running -> StopRequested, reporting whether this
// call was the one that made the transition (so Stop's caller knows to
// actually perform the drain rather than a concurrent caller racing it).
func (f *RunFlag) RequestStop() bool {
	return atomic.CompareAndSwapInt32(&f.v, int32(Running), int32(StopRequested))
}
