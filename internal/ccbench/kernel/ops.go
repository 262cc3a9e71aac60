package kernel

import (
	"math/bits"

	"github.com/maemo32/ccbench/internal/ccbench/atomicops"
	"github.com/maemo32/ccbench/internal/ccbench/cline"
)

// Load reads the contended word.
func Load(w *cline.AtomicWord) uint32 { return w.Load() }

// Store writes val to the contended word.
func Store(w *cline.AtomicWord, val uint32) { w.Store(val) }

// CASAttempt performs one compare-and-swap attempt, returning whether
// it succeeded.
func CASAttempt(w *cline.AtomicWord, old, new uint32) bool { return w.CAS(old, new) }

// FAIOp performs one fetch-and-increment, returning the prior value.
func FAIOp(w *cline.AtomicWord, delta uint32) uint32 { return w.FAI(delta) }

// TASOp performs one test-and-set, reporting whether the slot was free.
func TASOp(w *cline.AtomicWord) bool { return w.TAS() }

// SwapOp performs one unconditional swap, returning the prior value.
func SwapOp(w *cline.AtomicWord, new uint32) uint32 { return w.SWAP(new) }

// ResetWord clears the contended word back to 0 without recording a
// sample (used after TAS so the next repetition starts from "free").
func ResetWord(w *cline.AtomicWord) { w.Reset() }

// RetryUntilSuccess retries attempt with an exponentially-growing spin
// backoff (base, doubling, capped at max) until it returns true. It
// returns the number of attempts actually made, including the
// successful one.
//
// Unlike the teacher's fixed-iteration retry loops, this one has no
// static bound — the TAS and CAS-until-success kernels that call it
// retry until success.
func RetryUntilSuccess(attempt func() bool, base, max int) (attempts int) {
	spin := base
	if spin < 1 {
		spin = 1
	}
	for {
		attempts++
		if attempt() {
			return attempts
		}
		Spin(spin)
		if spin < max {
			spin *= 2
			if spin > max {
				spin = max
			}
		}
	}
}

// Spin burns n iterations of cheap, non-elidable arithmetic. There is no
// ecosystem library in the retrieval pack offering cycle-granularity
// spin-backoff (time/cenkalti-style backoff libraries operate at
// millisecond resolution, unsuitable for contention retries measured in
// tens of cycles), so this is hand-rolled, matching how SupraX_Legacy's
// own tight inner loops are plain Go with no external dependency.
func Spin(n int) {
	x := uint32(0x9e3779b9)
	for i := 0; i < n; i++ {
		x = x*1664525 + 1013904223
	}
	spinSink = x
}

// spinSink holds Spin's last result so the loop above can never be
// proven dead and elided.
var spinSink uint32

// PointerChase walks the region's Next-linked arena for steps hops
// starting at index start, ignoring stride entirely (spec.md §4.6:
// "stride is ignored for this test"). It returns the final index, kept
// so the walk cannot be optimized away.
func PointerChase(region *cline.CacheLineRegion, start, steps int) int {
	idx := start
	for i := 0; i < steps; i++ {
		idx = int(region.Lines[idx].Next.Load())
	}
	return idx
}

// BuildChaseLinks initializes the Next link of every line in region to
// a fixed random permutation (Sattolo's algorithm, which guarantees a
// single cycle touching every line — no shortcuts a smart prefetcher
// could exploit), so PointerChase's walk length equals NLines before it
// revisits the start.
func BuildChaseLinks(region *cline.CacheLineRegion, seed uint64) {
	n := len(region.Lines)
	if n <= 1 {
		if n == 1 {
			region.Lines[0].Next.Store(0)
		}
		return
	}
	perm := make([]uint32, n)
	for i := range perm {
		perm[i] = uint32(i)
	}
	rng := seed
	for i := n - 1; i > 0; i-- {
		rng = splitmix64(rng)
		j := int(rng % uint64(i))
		perm[i], perm[j] = perm[j], perm[i]
	}
	for i := 0; i < n; i++ {
		region.Lines[perm[i]].Next.Store(perm[(i+1)%n])
	}
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x = x ^ (x >> 31)
	return x
}

// StrideWalker produces a sequence of line indices in [1, nLines),
// advancing by stride. Index 0 (the contended word) is never returned.
// The Round driver uses it only to choose the starting line of each
// pointer-chase walk; the engine's stride-hiding loops draw their line
// indices from their own random source, not from a StrideWalker.
type StrideWalker struct {
	nLines int
	stride int
	cursor int
	seed   uint64
}

// NewStrideWalker builds a walker over [1, nLines) with the given
// stride (already rounded to a power of two by config.RoundStride) and
// a per-rank seed so concurrent ranks don't all touch the same lines in
// lockstep.
func NewStrideWalker(nLines, stride int, seed uint64) *StrideWalker {
	if nLines < 2 {
		nLines = 2
	}
	return &StrideWalker{nLines: nLines, stride: stride, cursor: int(seed % uint64(nLines-1)), seed: seed}
}

// Next returns the next line index in [1, nLines) and advances the
// walker by stride, wrapping modulo (nLines-1). When stride is a power
// of two that divides (nLines-1), every step also adds a pseudo-random
// offset in [0, 4) so the sequence doesn't degenerate into a fixed
// short cycle.
func (w *StrideWalker) Next() int {
	span := w.nLines - 1
	w.cursor = (w.cursor + w.stride) % span
	if bits.OnesCount(uint(w.stride)) == 1 && span%w.stride == 0 {
		w.seed = splitmix64(w.seed)
		w.cursor = (w.cursor + int(w.seed%4)) % span
	}
	return 1 + w.cursor
}

// Fence issues the ordering primitive for kind; exported here so the
// Round driver can call kernel.Fence without also importing atomicops
// directly for classic-mode fence test_ids.
func Fence(kind atomicops.FenceKind) { atomicops.Fence(kind) }
