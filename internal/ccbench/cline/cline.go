// Package cline implements the Buffer allocator of spec.md §4.2: a
// cache-line-aligned, zero-initialized CacheLineRegion, optionally
// placed on a chosen NUMA node and optionally page-locked.
//
// True NUMA-local allocation (libnuma's mbind(2)) has no portable Go
// binding in the retrieval pack's dependency set; this package
// approximates node placement the way first-touch NUMA policies work on
// Linux in practice — pin the allocating goroutine's OS thread to a core
// on the target node, then touch every line, so the kernel's
// first-touch page-fault policy backs each page with that node's memory.
// Where the platform doesn't support affinity pinning (§ affinity.go),
// placement silently falls back to plain aligned allocation, which
// spec.md §4.2 states is not an error.
package cline

import (
	"unsafe"

	"github.com/maemo32/ccbench/internal/ccbench/ccerr"
)

// LineWords is the number of 32-bit words addressable per CacheLine
// beyond the two atomic control words (contended word0 and the
// pointer-chase next-link).
const LineWords = 14

// CacheLineSize is the size in bytes of one CacheLine; also the
// required alignment of a CacheLineRegion's backing storage.
const CacheLineSize = 64

// CacheLine is a 64-byte aligned record: an atomically-addressable
// contended word, an atomically-addressable pointer-chase link, and 14
// plain 32-bit words padding the line out to 64 bytes.
type CacheLine struct {
	Word0 AtomicWord
	Next  AtomicWord
	Pad   [LineWords]uint32
}

// CacheLineRegion is an ordered sequence of CacheLines. Lines[0] is the
// contended target of every measured operation; the remainder form the
// stride/pointer-chase arena.
type CacheLineRegion struct {
	Lines []CacheLine
	raw   []byte // keeps the over-allocated backing array alive/aligned
}

// NLines returns the number of lines in the region.
func (r *CacheLineRegion) NLines() int { return len(r.Lines) }

// TouchPolicy selects how much of the region is first-touched at
// allocation time.
type TouchPolicy int

const (
	TouchSingleLine TouchPolicy = iota
	TouchFullRegion
)

// Request bundles the Buffer allocator's contract per spec.md §4.2.
type Request struct {
	SizeBytes     int64
	Alignment     int // 0 defaults to CacheLineSize
	PreferredNode int // -1 = no NUMA preference
	LockPages     bool
	TouchPolicy   TouchPolicy
}

// Allocator returns a cache-line-aligned, zero-initialized
// CacheLineRegion and a destructor handle.
type Allocator interface {
	Allocate(req Request) (region *CacheLineRegion, destroy func(), err error)
}

// DefaultAllocator is the concrete Allocator backing production runs.
// It delegates NUMA-node placement and page-locking to an Affinity
// implementation (affinity_linux.go / affinity_other.go).
type DefaultAllocator struct {
	Affinity Affinity
}

// NewDefaultAllocator returns a DefaultAllocator using the platform
// Affinity implementation.
func NewDefaultAllocator() *DefaultAllocator {
	return &DefaultAllocator{Affinity: PlatformAffinity()}
}

func (a *DefaultAllocator) Allocate(req Request) (*CacheLineRegion, func(), error) {
	align := req.Alignment
	if align <= 0 {
		align = CacheLineSize
	}
	if req.SizeBytes <= 0 {
		return nil, nil, ccerr.NewAllocError("cline.Allocate", "size must be positive, got %d", req.SizeBytes)
	}
	nLines := (req.SizeBytes + CacheLineSize - 1) / CacheLineSize
	if nLines < 1 {
		nLines = 1
	}

	raw := make([]byte, int64(align)+nLines*CacheLineSize)
	base := uintptr(unsafe.Pointer(&raw[0]))
	offset := (uintptr(align) - (base % uintptr(align))) % uintptr(align)
	aligned := unsafe.Pointer(&raw[offset])

	region := &CacheLineRegion{
		Lines: unsafe.Slice((*CacheLine)(aligned), nLines),
		raw:   raw,
	}

	var unpin func()
	if req.PreferredNode >= 0 && a.Affinity != nil {
		if done, err := a.Affinity.PinToNode(req.PreferredNode); err == nil {
			unpin = done
		}
		// NUMA-local placement unavailable: fall back silently, per contract.
	}

	switch req.TouchPolicy {
	case TouchFullRegion:
		for i := range region.Lines {
			region.Lines[i].Word0.Store(0)
		}
	default:
		region.Lines[0].Word0.Store(0)
	}

	if unpin != nil {
		unpin()
	}

	var lockDone func()
	if req.LockPages && a.Affinity != nil {
		lockDone, _ = a.Affinity.LockPages(raw) // best-effort; failure is non-fatal
	}

	destroy := func() {
		if lockDone != nil {
			lockDone()
		}
	}
	return region, destroy, nil
}
