// Package tracker implements the RaceTracker of spec.md §4.5: per-
// repetition winner claims, per-rank win tallies, and common-start
// latency recording.
package tracker

import (
	"sync/atomic"

	"github.com/maemo32/ccbench/internal/ccbench/ticks"
)

// Unclaimed is the sentinel first_winner value before any rank has
// claimed a repetition.
const Unclaimed int32 = -1

// Tracker holds the three shared arrays of spec.md §3 plus the per-rank
// retry counters. All fields are created once by the controller, shared
// read/write by every rank, and read by the Reporter strictly after
// every worker has joined.
type Tracker struct {
	nReps int

	firstWinner   []atomic.Int32  // per rep
	roundStart    []atomic.Uint64 // per rep, in ticks.Cycles
	commonLatency []atomic.Uint64 // rank*nReps + rep, in cycles

	wins []atomic.Uint64 // per rank; written by the claiming rank (foreign writer)

	// Per-rank retry counters. Written only by the owning rank, never by
	// any other goroutine, so spec.md §4.5 requires no synchronization;
	// they become visible to the post-join Reporter via the worker
	// goroutine's WaitGroup.Done happens-before edge.
	CasAttempts  []uint64
	CasSuccesses []uint64
	CasFailures  []uint64
}

// New allocates a Tracker for nRanks ranks and nReps repetitions.
func New(nRanks, nReps int) *Tracker {
	t := &Tracker{
		nReps:         nReps,
		firstWinner:   make([]atomic.Int32, nReps),
		roundStart:    make([]atomic.Uint64, nReps),
		commonLatency: make([]atomic.Uint64, nRanks*nReps),
		wins:          make([]atomic.Uint64, nRanks),
		CasAttempts:   make([]uint64, nRanks),
		CasSuccesses:  make([]uint64, nRanks),
		CasFailures:   make([]uint64, nRanks),
	}
	for i := range t.firstWinner {
		t.firstWinner[i].Store(Unclaimed)
	}
	return t
}

// ResetRep resets repetition rep's first-winner cell to Unclaimed. Called
// by the seeder each repetition, before round_start is published.
func (t *Tracker) ResetRep(rep int) {
	t.firstWinner[rep].Store(Unclaimed)
}

// PublishRoundStart records the common release instant for rep. Called
// exactly once per repetition by the seeder, before it releases B4.
func (t *Tracker) PublishRoundStart(rep int, now ticks.Cycles) {
	t.roundStart[rep].Store(uint64(now))
}

// RoundStart returns the published release instant for rep.
func (t *Tracker) RoundStart(rep int) ticks.Cycles {
	return ticks.Cycles(t.roundStart[rep].Load())
}

// TryClaim compare-and-sets first_winner[rep] from Unclaimed to rank; on
// success it atomically increments wins[rank]. At most one rank per rep
// ever transitions the cell (spec.md §8 invariant).
func (t *Tracker) TryClaim(rank, rep int) (won bool) {
	if t.firstWinner[rep].CompareAndSwap(Unclaimed, int32(rank)) {
		t.wins[rank].Add(1)
		return true
	}
	return false
}

// FirstWinner returns the rank that won rep, or Unclaimed.
func (t *Tracker) FirstWinner(rep int) int32 {
	return t.firstWinner[rep].Load()
}

// Wins returns rank's win tally.
func (t *Tracker) Wins(rank int) uint64 {
	return t.wins[rank].Load()
}

// RecordSuccess sets common_latency[rank,rep] to now-round_start(rep),
// the first time it is called for that (rank,rep) pair; idempotent on
// subsequent calls (spec.md §4.5).
func (t *Tracker) RecordSuccess(rank, rep int, now ticks.Cycles) {
	idx := rank*t.nReps + rep
	latency := uint64(now) - t.roundStart[rep].Load()
	if latency == 0 {
		latency = 1 // common_latency must be > 0 per spec.md §8; a same-tick
		// measurement still represents real, if unresolvably small, work.
	}
	t.commonLatency[idx].CompareAndSwap(0, latency)
}

// CommonLatency returns the recorded common-start latency for (rank,rep),
// or 0 if never recorded.
func (t *Tracker) CommonLatency(rank, rep int) uint64 {
	return t.commonLatency[rank*t.nReps+rep].Load()
}

// NReps returns the configured repetition count.
func (t *Tracker) NReps() int { return t.nReps }
