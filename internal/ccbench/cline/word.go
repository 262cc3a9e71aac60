package cline

import (
	"sync/atomic"

	"github.com/maemo32/ccbench/internal/ccbench/atomicops"
)

// AtomicWord is a 32-bit word within a CacheLine, addressable by the
// platform atomic intrinsics (CAS/FAI/TAS/SWAP) the operation kernels
// drive.
type AtomicWord struct {
	v atomic.Uint32
}

func (w *AtomicWord) Load() uint32     { return w.v.Load() }
func (w *AtomicWord) Store(val uint32) { w.v.Store(val) }

func (w *AtomicWord) CAS(old, new uint32) bool { return atomicops.CAS32(&w.v, old, new) }
func (w *AtomicWord) FAI(delta uint32) uint32   { return atomicops.FAI32(&w.v, delta) }
func (w *AtomicWord) SWAP(new uint32) uint32    { return atomicops.SWAP32(&w.v, new) }
func (w *AtomicWord) TAS() bool                 { return atomicops.TAS32(&w.v) }
func (w *AtomicWord) Reset()                    { w.v.Store(0) }
