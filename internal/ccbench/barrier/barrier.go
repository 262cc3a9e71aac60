// Package barrier implements the BarrierBank of spec.md §4.1: a fixed
// set of independently reconfigurable synchronization points, each
// callable by a known subset of ranks.
package barrier

import (
	"sync"

	"github.com/maemo32/ccbench/internal/ccbench/atomicops"
	"github.com/maemo32/ccbench/internal/ccbench/ccerr"
)

// Named slot indices, per spec.md §3 ("Named slots include at least:
// B0, B1, B2, B3, B4, B10").
const (
	B0 = iota
	B1
	B2
	B3
	B4
	B10
	NumNamedSlots
)

// PerGroupSlots is the number of per-group barrier slots (k) reserved
// per group, addressed as PerGroupBase + group*PerGroupSlots + k.
const PerGroupSlots = 2

// PerGroupBase is the first slot index of the per-group block.
const PerGroupBase = NumNamedSlots

// GroupSlot computes the slot index for per-group barrier k of group.
func GroupSlot(group, k int) int {
	return PerGroupBase + group*PerGroupSlots + k
}

// slot is one reconfigurable cyclic barrier.
type slot struct {
	mu           sync.Mutex
	cond         *sync.Cond
	participants int
	waiting      int
	generation   uint64
	closed       bool
}

func newSlot(participants int) *slot {
	s := &slot{participants: participants}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// setParticipants reconfigures the slot. Fails with ConfigError if any
// thread is currently blocked inside Wait on this slot.
func (s *slot) setParticipants(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.waiting != 0 {
		return ccerr.NewConfigError("barrier.SetParticipants", "cannot reconfigure slot with %d caller(s) currently waiting", s.waiting)
	}
	s.participants = n
	return nil
}

// wait blocks until all configured participants have called wait for
// the current round, or returns a SystemError if the bank has been torn
// down while the caller was blocked.
func (s *slot) wait() error {
	atomicops.Fence(atomicops.FenceFull)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ccerr.NewSystemError("barrier.Wait", "wait on a torn-down barrier slot")
	}
	if s.participants <= 0 {
		s.mu.Unlock()
		return ccerr.NewSystemError("barrier.Wait", "slot has zero configured participants")
	}
	gen := s.generation
	s.waiting++
	if s.waiting == s.participants {
		s.generation++
		s.waiting = 0
		s.cond.Broadcast()
		s.mu.Unlock()
		return nil
	}
	for gen == s.generation && !s.closed {
		s.cond.Wait()
	}
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ccerr.NewSystemError("barrier.Wait", "wait on a torn-down barrier slot")
	}
	return nil
}

func (s *slot) term() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Bank is the fixed array of N_BAR reconfigurable barriers.
type Bank struct {
	slots []*slot
}

// Init allocates NumNamedSlots + numGroups*PerGroupSlots barriers, each
// initially expecting defaultParticipants callers.
func Init(numGroups, defaultParticipants int) *Bank {
	total := NumNamedSlots + numGroups*PerGroupSlots
	b := &Bank{slots: make([]*slot, total)}
	for i := range b.slots {
		b.slots[i] = newSlot(defaultParticipants)
	}
	return b
}

// SetParticipants reconfigures slot to expect n callers next round.
func (b *Bank) SetParticipants(slotIdx, n int) error {
	if slotIdx < 0 || slotIdx >= len(b.slots) {
		return ccerr.NewConfigError("Bank.SetParticipants", "slot %d out of range", slotIdx)
	}
	return b.slots[slotIdx].setParticipants(n)
}

// Wait blocks the caller (identified by rank, for diagnostics only)
// until slotIdx's configured participants have all called Wait. A full
// memory fence is issued before entering, establishing the
// happens-before edge spec.md §5 requires.
func (b *Bank) Wait(slotIdx int, rank int) error {
	if slotIdx < 0 || slotIdx >= len(b.slots) {
		return ccerr.NewSystemError("Bank.Wait", "slot %d out of range (rank %d)", slotIdx, rank)
	}
	return b.slots[slotIdx].wait()
}

// Term destroys all slots, releasing any caller still blocked in Wait
// with a SystemError.
func (b *Bank) Term() {
	for _, s := range b.slots {
		s.term()
	}
}
