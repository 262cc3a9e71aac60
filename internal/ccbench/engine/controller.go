package engine

import (
	"runtime"
	"sync"

	"github.com/maemo32/ccbench/internal/ccbench/atomicops"
	"github.com/maemo32/ccbench/internal/ccbench/barrier"
	"github.com/maemo32/ccbench/internal/ccbench/ccerr"
	"github.com/maemo32/ccbench/internal/ccbench/cline"
	"github.com/maemo32/ccbench/internal/ccbench/config"
	"github.com/maemo32/ccbench/internal/ccbench/kernel"
	"github.com/maemo32/ccbench/internal/ccbench/rankmap"
	"github.com/maemo32/ccbench/internal/ccbench/ticks"
	"github.com/maemo32/ccbench/internal/ccbench/tracker"
)

// Result is everything the Reporter needs, handed back strictly after
// every worker (and any auxiliary seeder) has joined.
type Result struct {
	Cfg     *config.RunConfig
	Workers []*Worker
	Tracker *tracker.Tracker
	HasCASUntilSuccess bool
}

// auxSeeder drives the dedicated seed-only goroutine spawned when the
// configured seed core is not among the contending ranks (spec.md §4.4,
// "auxiliary seeder"). It never touches B0/B3/B1/B2 — only B4, whose
// configured participant count the controller widens to T+1.
type auxSeeder struct {
	cfg     *config.RunConfig
	region  *cline.CacheLineRegion
	bank    *barrier.Bank
	trk     *tracker.Tracker
	clock   ticks.Clock
	affinity cline.Affinity
}

func (a *auxSeeder) run() error {
	if a.affinity != nil {
		_ = a.affinity.PinCurrentThread(a.cfg.SeedCore) // best-effort; pin failure is non-fatal
	}
	for rep := 0; rep < a.cfg.Repetitions; rep++ {
		o := uint32(rep & 1)
		a.region.Lines[0].Word0.Store(o)
		atomicops.Fence(atomicops.FenceFull)
		a.trk.ResetRep(rep)
		atomicops.Fence(atomicops.FenceFull)
		a.trk.PublishRoundStart(rep, a.clock.Now())
		atomicops.Fence(atomicops.FenceFull)
		if err := a.bank.Wait(barrier.B4, -1); err != nil {
			return err
		}
	}
	return nil
}

// Run builds the barrier bank, buffer, race tracker and PFD stores from
// cfg, spawns one goroutine per rank plus an auxiliary seeder if
// needed, drives cfg.Repetitions rounds, joins everyone, and returns
// the aggregated Result for the Reporter. The shared buffer's destroy
// handle is invoked before returning.
func Run(cfg *config.RunConfig, alloc cline.Allocator, affinity cline.Affinity, clock ticks.Clock) (*Result, error) {
	rm := cfg.RankMap

	region, destroy, err := alloc.Allocate(cline.Request{
		SizeBytes:     cfg.MemSizeBytes,
		Alignment:     cline.CacheLineSize,
		PreferredNode: numaNode(cfg),
		LockPages:     cfg.MLock,
		TouchPolicy:   cline.TouchFullRegion,
	})
	if err != nil {
		return nil, err
	}
	defer destroy()

	kernel.BuildChaseLinks(region, 0x1234567890abcdef)

	auxiliary := cfg.SeedCore >= 0 && !coreInRankMap(rm.Core, cfg.SeedCore)
	b4Participants := rm.T
	if auxiliary {
		b4Participants = rm.T + 1
	}

	bank := barrier.Init(rm.NumGroups, rm.T)
	if err := bank.SetParticipants(barrier.B0, rm.T); err != nil {
		return nil, err
	}
	if err := bank.SetParticipants(barrier.B3, rm.T); err != nil {
		return nil, err
	}
	if cfg.SeedCore >= 0 {
		if err := bank.SetParticipants(barrier.B4, b4Participants); err != nil {
			return nil, err
		}
	}
	for r := 0; r < rm.T; r++ {
		if !kernel.Valid(kernel.TestID(rm.Test[r])) {
			return nil, ccerr.NewConfigError("engine.Run", "rank %d: unknown test_id %d", r, rm.Test[r])
		}
	}
	groupB1, groupB2 := groupBarrierParticipants(rm, cfg.SeedCore >= 0)
	for g := 0; g < rm.NumGroups; g++ {
		if err := bank.SetParticipants(barrier.GroupSlot(g, 0), groupB1[g]); err != nil {
			return nil, err
		}
		if err := bank.SetParticipants(barrier.GroupSlot(g, 1), groupB2[g]); err != nil {
			return nil, err
		}
	}
	defer bank.Term()

	trk := tracker.New(rm.T, cfg.Repetitions)

	workers := make([]*Worker, rm.T)
	hasCUS := false
	for r := 0; r < rm.T; r++ {
		testID := kernel.TestID(rm.Test[r])
		if testID == kernel.CASUntilSuccess {
			hasCUS = true
		}
		inBand := cfg.SeedCore >= 0 && rm.Core[r] == cfg.SeedCore
		workers[r] = NewWorker(r, rm.Group[r], rm.Role[r], testID, rm.Backoff[r], cfg, region, bank, trk, clock, inBand, uint64(r)+1)
	}

	var wg sync.WaitGroup
	errs := make(chan error, rm.T+1)

	if auxiliary {
		seeder := &auxSeeder{cfg: cfg, region: region, bank: bank, trk: trk, clock: clock, affinity: affinity}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := seeder.run(); err != nil {
				errs <- err
			}
		}()
	}

	for _, w := range workers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			runPinned(w, affinity, rm.Core[w.Rank])
			if err := w.Run(); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &Result{Cfg: cfg, Workers: workers, Tracker: trk, HasCASUntilSuccess: hasCUS}, nil
}

// runPinned locks the calling goroutine to its OS thread and pins that
// thread to core, per spec.md §5 ("one OS-level thread per rank, each
// pinned to its configured hardware thread"). Must run from inside the
// worker's own goroutine — affinity applies to the calling thread.
func runPinned(w *Worker, affinity cline.Affinity, core int) {
	runtime.LockOSThread()
	if affinity != nil {
		_ = affinity.PinCurrentThread(core) // best-effort: unsupported platforms proceed unpinned
	}
}

// groupBarrierParticipants derives, per group, how many ranks actually
// call the per-group B1/B2 slots this run — the count the bank must be
// configured with, per spec.md §4.1 (a slot's participant count must
// equal the number of threads that will actually call it next round).
//
// Seed mode's runSeedMode always ends with an unconditional groupB1
// wait, regardless of test_id, and never touches groupB2: every rank
// in the group counts toward B1, none toward B2. Classic mode instead
// derives the count from each rank's own Choreography sequence, since
// e.g. STORE_ON_MODIFIED's role 0 never calls bar(1) at all — sizing
// that slot to the raw group size would leave role 0 never arriving
// and every other caller blocked forever.
func groupBarrierParticipants(rm *rankmap.RankMap, seedMode bool) (b1, b2 []int) {
	b1 = make([]int, rm.NumGroups)
	b2 = make([]int, rm.NumGroups)

	if seedMode {
		for r := 0; r < rm.T; r++ {
			b1[rm.Group[r]]++
		}
		return b1, b2
	}

	for r := 0; r < rm.T; r++ {
		// Every rm.Test[r] is already validated (engine.Run checks Valid
		// before calling this), so Choreography never errors here.
		actions, _ := kernel.Choreography(kernel.TestID(rm.Test[r]), rm.Role[r])
		for _, a := range actions {
			if a.Kind != kernel.ActBarrier {
				continue
			}
			switch a.Slot {
			case 1:
				b1[rm.Group[r]]++
			case 2:
				b2[rm.Group[r]]++
			}
		}
	}
	return b1, b2
}

func coreInRankMap(cores []int, seedCore int) bool {
	for _, c := range cores {
		if c == seedCore {
			return true
		}
	}
	return false
}

func numaNode(cfg *config.RunConfig) int {
	if cfg.NoNUMA {
		return -1
	}
	return 0
}
