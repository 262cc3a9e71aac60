// Package atomicops abstracts the platform atomic intrinsics and memory
// fences spec.md lists as external collaborators: CAS/FAI/TAS/SWAP on
// 8/32-bit words, and load/store/full fences. Go's memory model ties
// ordering guarantees to the atomic operations themselves rather than to
// free-standing fence instructions, so the fence functions here are
// expressed as atomic round-trips on a private witness location — they
// give every goroutine that calls them a real happens-before edge
// without requiring per-arch assembly.
package atomicops

import "sync/atomic"

// FenceKind selects which ordering a kernel call site requests.
type FenceKind int

const (
	FenceNone FenceKind = iota
	FencePartial
	FenceFull
	FenceDoubleWrite
)

var fenceWitness atomic.Uint64

// Fence issues the ordering implied by kind. FenceNone is a true no-op
// (used by fence_lvl combinations that disable ordering on one side).
// FencePartial performs a single atomic store (a store-store barrier on
// most real hardware). FenceFull performs a store followed by a load (a
// full round-trip). FenceDoubleWrite performs two stores, modeling the
// "double write" store-fence mode of spec.md §6's fence-policy table.
func Fence(kind FenceKind) {
	switch kind {
	case FenceNone:
		return
	case FencePartial:
		fenceWitness.Add(1)
	case FenceFull:
		fenceWitness.Add(1)
		_ = fenceWitness.Load()
	case FenceDoubleWrite:
		fenceWitness.Add(1)
		fenceWitness.Add(1)
	}
}

// Word8 is an 8-bit atomic word, packed into the low byte of a uint32
// slot (sync/atomic has no native 8-bit atomic type). The FAI/TAS/SWAP
// kernels do not use it; they operate on the 32-bit cline.AtomicWord.
type Word8 struct {
	v atomic.Uint32
}

func (w *Word8) Load() uint8 { return uint8(w.v.Load()) }

func (w *Word8) Store(val uint8) { w.v.Store(uint32(val)) }

// CAS8 compares-and-swaps the low byte; old/new outside [0,255] are
// truncated by the caller's responsibility, matching hardware CAS on a
// byte-sized operand.
func CAS8(w *Word8, old, new uint8) (swapped bool) {
	return w.v.CompareAndSwap(uint32(old), uint32(new))
}

// FAI8 fetches the current value and adds delta, returning the prior value.
func FAI8(w *Word8, delta uint8) (old uint8) {
	return uint8(w.v.Add(uint32(delta)) - uint32(delta))
}

// TAS8 is test-and-set: atomically stores 1 and returns whether the slot
// was previously 0 ("free"). Matches the hardware TAS semantics used by
// the TAS kernel's retry loop.
func TAS8(w *Word8) (wasFree bool) {
	return w.v.Swap(1) == 0
}

// SWAP8 atomically stores new and returns the prior value.
func SWAP8(w *Word8, new uint8) (old uint8) {
	return uint8(w.v.Swap(uint32(new)))
}

// CAS32 compares-and-swaps a 32-bit word.
func CAS32(w *atomic.Uint32, old, new uint32) (swapped bool) {
	return w.CompareAndSwap(old, new)
}

// FAI32 fetches the current value of w and adds delta, returning the
// prior value.
func FAI32(w *atomic.Uint32, delta uint32) (old uint32) {
	return w.Add(delta) - delta
}

// SWAP32 atomically stores new into w and returns the prior value.
func SWAP32(w *atomic.Uint32, new uint32) (old uint32) {
	return w.Swap(new)
}

// TAS32 is test-and-set on a 32-bit word: atomically stores 1 and
// reports whether the slot was previously 0 ("free").
func TAS32(w *atomic.Uint32) (wasFree bool) {
	return w.Swap(1) == 0
}
