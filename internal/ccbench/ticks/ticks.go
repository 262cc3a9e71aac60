// Package ticks abstracts the cycle-counter primitive. spec.md lists
// ticks_now() as an external collaborator, seen only through this
// interface; the concrete implementation here is a portable fallback
// (no per-arch RDTSC assembly), documented as such rather than guessed.
package ticks

import "time"

// Cycles is a raw cycle count, monotonically increasing within a run.
type Cycles uint64

// Clock reads the current cycle count, ordered by the caller's fence
// policy (the Clock itself issues no fence — callers bracket reads with
// atomicops.FenceFull where the protocol requires a happens-before edge).
type Clock interface {
	Now() Cycles
}

// EstimatedHz is the assumed core frequency used to convert wall-clock
// nanoseconds into an approximate cycle count. 3.0 GHz is a reasonable
// stand-in for a contemporary desktop/server core; callers that need the
// true figure should supply their own Clock (e.g. one backed by
// arch-specific RDTSC assembly, which this portable build does not carry).
const EstimatedHz = 3_000_000_000

// wallClock is the default Clock: Go has no portable access to RDTSC
// without per-arch assembly, so cycles are approximated from the
// runtime's monotonic clock. This is adequate for relative comparisons
// across ranks within one run (the quantity the engine actually reports)
// but is not a substitute for a true cycle counter.
type wallClock struct {
	hz    uint64
	epoch time.Time
}

// NewWallClock returns the default portable Clock, scaled by hz cycles
// per second. Pass ticks.EstimatedHz when the true frequency is unknown.
func NewWallClock(hz uint64) Clock {
	if hz == 0 {
		hz = EstimatedHz
	}
	return &wallClock{hz: hz, epoch: time.Now()}
}

func (c *wallClock) Now() Cycles {
	elapsed := uint64(time.Since(c.epoch))
	sec, frac := elapsed/uint64(time.Second), elapsed%uint64(time.Second)
	return Cycles(sec*c.hz + frac*c.hz/uint64(time.Second))
}
