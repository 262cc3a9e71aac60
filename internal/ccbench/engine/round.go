// Package engine implements the Round driver and controller of
// spec.md §4.4/§4.7: the per-worker state machine that executes one
// repetition (precondition barriers → measured op → postcondition
// barriers), and the orchestration that builds every collaborator and
// spawns one goroutine per rank plus at most one seeder.
//
// The per-worker loop below generalizes SupraX_Legacy's own CPU.Cycle()
// main-loop structure (see DESIGN.md's grounding ledger) — a small state
// machine advanced once per repetition instead of once per clock edge —
// from a single-threaded instruction pipeline to a barrier-synchronized
// multi-goroutine contention round.
package engine

import (
	"math/rand/v2"

	"github.com/maemo32/ccbench/internal/ccbench/atomicops"
	"github.com/maemo32/ccbench/internal/ccbench/barrier"
	"github.com/maemo32/ccbench/internal/ccbench/ccerr"
	"github.com/maemo32/ccbench/internal/ccbench/cline"
	"github.com/maemo32/ccbench/internal/ccbench/config"
	"github.com/maemo32/ccbench/internal/ccbench/kernel"
	"github.com/maemo32/ccbench/internal/ccbench/pfd"
	"github.com/maemo32/ccbench/internal/ccbench/ticks"
	"github.com/maemo32/ccbench/internal/ccbench/tracker"
)

// MaxStoreIDs bounds the per-rank PFDStore set. The richest choreography
// (LOAD_FROM_L1) consumes three measurement points per repetition; every
// other test_id uses at most two.
const MaxStoreIDs = 3

// Worker holds everything one rank's goroutine needs to drive its
// repetitions; built once by the controller and never shared by value.
type Worker struct {
	Rank      int
	Group     int
	Role      int
	TestID    kernel.TestID
	BackoffCap int

	Cfg     *config.RunConfig
	Region  *cline.CacheLineRegion
	Bank    *barrier.Bank
	Tracker *tracker.Tracker
	Samples *pfd.Set
	Clock   ticks.Clock

	IsInBandSeeder bool

	rng       *rand.Rand
	walker    *kernel.StrideWalker
	curStoreID int
}

// NewWorker constructs a Worker. seedVal differentiates each rank's
// stride-hiding and pointer-chase sequence so concurrent ranks don't
// walk the arena in lockstep.
func NewWorker(rank, group, role int, testID kernel.TestID, backoffCap int, cfg *config.RunConfig,
	region *cline.CacheLineRegion, bank *barrier.Bank, trk *tracker.Tracker, clock ticks.Clock, inBandSeeder bool, seedVal uint64) *Worker {

	return &Worker{
		Rank:           rank,
		Group:          group,
		Role:           role,
		TestID:         testID,
		BackoffCap:     backoffCap,
		Cfg:            cfg,
		Region:         region,
		Bank:           bank,
		Tracker:        trk,
		Samples:        pfd.NewSet(MaxStoreIDs, cfg.Repetitions),
		Clock:          clock,
		IsInBandSeeder: inBandSeeder,
		rng:            rand.New(rand.NewPCG(seedVal, seedVal^0x9e3779b97f4a7c15)),
		walker:         kernel.NewStrideWalker(int(cfg.NLines), cfg.Stride, seedVal),
	}
}

// Run drives the worker through Cfg.Repetitions rounds. Returns a fatal
// SystemError on the first barrier failure; a kernel-level failure
// (unknown test_id) is handled internally per spec.md §4.7 and never
// returned.
func (w *Worker) Run() error {
	groupB1 := barrier.GroupSlot(w.Group, 0)
	groupB2 := barrier.GroupSlot(w.Group, 1)

	for rep := 0; rep < w.Cfg.Repetitions; rep++ {
		if w.Cfg.Flush == config.FlushBeforeRep {
			w.Region.Lines[0].Word0.Store(0)
			atomicops.Fence(atomicops.FenceFull)
		}

		if err := w.Bank.Wait(barrier.B0, w.Rank); err != nil {
			return err
		}
		w.curStoreID = 0

		var err error
		if w.Cfg.SeedCore >= 0 {
			err = w.runSeedMode(rep, groupB1)
		} else {
			err = w.runClassicMode(rep, groupB1, groupB2)
		}
		if err != nil {
			return err
		}

		if err := w.Bank.Wait(barrier.B3, w.Rank); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) runSeedMode(rep int, groupB1 int) error {
	if w.IsInBandSeeder {
		w.seedDuty(rep)
	}
	if err := w.Bank.Wait(barrier.B4, w.Rank); err != nil {
		return err
	}

	if !w.IsInBandSeeder || w.TestID == kernel.CASUntilSuccess {
		act, err := kernel.DirectAction(w.TestID)
		if err != nil {
			w.noopSample(rep)
		} else if err := w.perform(rep, act); err != nil {
			return err
		}
	}
	return w.Bank.Wait(groupB1, w.Rank)
}

// seedDuty implements spec.md §4.4's per-repetition seeder sequence.
func (w *Worker) seedDuty(rep int) {
	o := uint32(rep & 1)
	w.Region.Lines[0].Word0.Store(o)
	atomicops.Fence(atomicops.FenceFull)
	w.Tracker.ResetRep(rep)
	atomicops.Fence(atomicops.FenceFull)
	w.Tracker.PublishRoundStart(rep, w.Clock.Now())
	atomicops.Fence(atomicops.FenceFull)
}

func (w *Worker) runClassicMode(rep int, groupB1, groupB2 int) error {
	actions, err := kernel.Choreography(w.TestID, w.Role)
	if err != nil {
		w.noopSample(rep)
		return nil
	}
	for _, a := range actions {
		if a.Kind == kernel.ActBarrier {
			slot := groupB1
			if a.Slot == 2 {
				slot = groupB2
			}
			if err := w.Bank.Wait(slot, w.Rank); err != nil {
				return err
			}
			continue
		}
		if err := w.perform(rep, a); err != nil {
			return err
		}
	}
	return nil
}

// noopSample records an aligned, zero-cost sample at store_id 0 so
// per-rank sample counts stay aligned when test_id is unrecognized
// (spec.md §4.7, §7 KernelInternal).
func (w *Worker) noopSample(rep int) {
	w.Samples.Store(0).Record(rep, 1)
}

// perform executes one non-barrier Action, measuring it through a
// PFD_IN/PFD_OUT bracket when the action carries a measured sample, and
// applying first-winner / common-latency semantics per spec.md §4.5/§4.6.
func (w *Worker) perform(rep int, a kernel.Action) error {
	word := &w.Region.Lines[0].Word0

	switch a.Kind {
	case kernel.ActLoadNoPF:
		kernel.Load(word)
		return nil
	case kernel.ActInvalidate:
		kernel.Store(word, uint32(w.Rank+1))
		atomicops.Fence(atomicops.FenceFull)
		return nil
	case kernel.ActResetWord:
		kernel.ResetWord(word)
		return nil
	}

	storeID := w.nextStoreID(rep)
	switch a.Kind {
	case kernel.ActLoad, kernel.ActCAS, kernel.ActCASEventual, kernel.ActCASUntilSuccess,
		kernel.ActFAI, kernel.ActTAS, kernel.ActSWAP:
		atomicops.Fence(w.Cfg.LoadFence)
	}
	start := w.Clock.Now()

	switch a.Kind {
	case kernel.ActLoad:
		w.strideHide(func() { kernel.Load(word) })
	case kernel.ActStore:
		w.strideHide(func() { kernel.Store(word, uint32(w.Rank+1)) })
		atomicops.Fence(w.Cfg.StoreFence)
	case kernel.ActCAS:
		expected, desired := w.casOperands(rep, word)
		w.strideHide(func() { kernel.CASAttempt(word, expected, desired) })
	case kernel.ActCASEventual:
		w.strideHideClaiming(rep, func() {
			expected, desired := w.casOperands(rep, word)
			kernel.CASAttempt(word, expected, desired)
		})
	case kernel.ActCASUntilSuccess:
		w.casUntilSuccess(rep, word)
	case kernel.ActFAI:
		w.strideHideWinner(rep, func() { kernel.FAIOp(word, 1) })
	case kernel.ActTAS:
		w.strideHideWinner(rep, func() {
			if w.Cfg.ForceSuccess {
				kernel.ResetWord(word)
			}
			attempt := func() bool { return kernel.TASOp(word) }
			kernel.RetryUntilSuccess(attempt, 1, w.BackoffCap)
		})
	case kernel.ActSWAP:
		w.strideHideWinner(rep, func() { kernel.SwapOp(word, uint32(w.Rank+1)) })
	case kernel.ActPointerChase:
		n := w.Region.NLines()
		kernel.PointerChase(w.Region, w.walker.Next()%n, n)
	case kernel.ActFence:
		kernel.Fence(a.Fence.Kind())
	default:
		return ccerr.NewSystemError("engine.perform", "unhandled action kind %d", int(a.Kind))
	}

	now := w.Clock.Now()
	w.Samples.Store(storeID).Record(rep, uint64(now)-uint64(start))
	return nil
}


// nextStoreID hands out store_ids in sequence within one repetition: the
// first measured action of a rep gets store_id 0, the second (e.g. the
// store-on-owned family's second store, or LOAD_FROM_L1's second load)
// gets store_id 1, and so on, clamped to the last slot if a
// choreography ever exceeds MaxStoreIDs.
func (w *Worker) nextStoreID(rep int) int {
	id := w.curStoreID
	if id >= w.Samples.NStores() {
		id = w.Samples.NStores() - 1
	}
	w.curStoreID++
	return id
}

// strideHide implements spec.md §4.6's stride-hiding loop for kernels
// with no winner semantics (Load, Store, single-shot CAS): draw a
// random line in [0, stride), touch it, repeat until the draw is 0 —
// guaranteeing at least one access to the contended line while
// defeating hardware prefetchers.
func (w *Worker) strideHide(measured func()) {
	for {
		cln := w.drawStride()
		if cln == 0 {
			measured()
			return
		}
		kernel.Load(&w.Region.Lines[cln].Word0)
	}
}

// strideHideClaiming is strideHide plus an unconditional first-winner
// claim at the cln==0 contact point, regardless of whether the
// contained op itself succeeded (spec.md §4.6/§9: CAS-eventually claims
// at contact, not at success — the asymmetry with CAS-until-success).
func (w *Worker) strideHideClaiming(rep int, measured func()) {
	for {
		cln := w.drawStride()
		if cln == 0 {
			w.Tracker.TryClaim(w.Rank, rep)
			measured()
			return
		}
		kernel.Load(&w.Region.Lines[cln].Word0)
	}
}

// strideHideWinner is strideHideClaiming plus record_success, for the
// FAI/TAS/SWAP kernels spec.md §4.6 explicitly lists as calling
// record_success on first contact. common_latency is only meaningful
// relative to a published round_start (spec.md §4.4), which only a
// seeder ever publishes — in classic mode (no seed core configured)
// record_success is skipped so the Reporter never derives a latency
// from an unpublished (zero) round_start.
func (w *Worker) strideHideWinner(rep int, measured func()) {
	for {
		cln := w.drawStride()
		if cln == 0 {
			w.Tracker.TryClaim(w.Rank, rep)
			measured()
			if w.Cfg.SeedCore >= 0 {
				w.Tracker.RecordSuccess(w.Rank, rep, w.Clock.Now())
			}
			return
		}
		kernel.Load(&w.Region.Lines[cln].Word0)
	}
}

// casUntilSuccess implements spec.md §4.6's CAS-until-success kernel: a
// stride-hiding walk to the contended line, then a retry loop that
// reads the current value and swaps its LSB, with exponential backoff
// between failures. Unlike strideHideClaiming, the winner claim and
// record_success both happen only on this rank's own successful CAS —
// the intentional asymmetry spec.md §9 calls out.
func (w *Worker) casUntilSuccess(rep int, word *cline.AtomicWord) {
	for {
		cln := w.drawStride()
		if cln != 0 {
			kernel.Load(&w.Region.Lines[cln].Word0)
			continue
		}
		break
	}

	attempt := func() bool {
		w.Tracker.CasAttempts[w.Rank]++
		old := word.Load()
		ok := kernel.CASAttempt(word, old, old^1)
		if ok {
			w.Tracker.CasSuccesses[w.Rank]++
		} else {
			w.Tracker.CasFailures[w.Rank]++
		}
		return ok
	}
	// With --backoff disabled the pause never grows: a fixed one-iteration
	// spin between attempts, matching the "no exponential backoff" default.
	base, max := 1, 1
	if w.Cfg.Backoff {
		base, max = 1, w.BackoffCap
	}
	kernel.RetryUntilSuccess(attempt, base, max)

	w.Tracker.TryClaim(w.Rank, rep)
	// See strideHideWinner: record_success only means something once a
	// seeder has published round_start for this rep.
	if w.Cfg.SeedCore >= 0 {
		w.Tracker.RecordSuccess(w.Rank, rep, w.Clock.Now())
	}
}

// casOperands picks the (expected, desired) pair for a single CAS
// attempt. Normally this is the opaque bit-flip of spec.md §4.6; with
// --success (spec.md §6's "force atomic ops to always succeed") the
// expected operand instead tracks the word's current value, so the
// first and only attempt is guaranteed to land.
func (w *Worker) casOperands(rep int, word *cline.AtomicWord) (expected, desired uint32) {
	if w.Cfg.ForceSuccess {
		expected = word.Load()
		return expected, expected ^ 1
	}
	expected = uint32(rep & 1)
	return expected, expected ^ 1
}

func (w *Worker) drawStride() int {
	if w.Cfg.Stride <= 1 {
		return 0
	}
	return w.rng.IntN(w.Cfg.Stride)
}
