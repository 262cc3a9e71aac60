package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maemo32/ccbench/internal/ccbench/atomicops"
	"github.com/maemo32/ccbench/internal/ccbench/cline"
	"github.com/maemo32/ccbench/internal/ccbench/config"
	"github.com/maemo32/ccbench/internal/ccbench/kernel"
	"github.com/maemo32/ccbench/internal/ccbench/rankmap"
	"github.com/maemo32/ccbench/internal/ccbench/ticks"
)

// fakeClock is a deterministic, monotonically increasing Clock, safe for
// concurrent use by every worker goroutine plus the auxiliary seeder.
type fakeClock struct{ n atomic.Uint64 }

func (c *fakeClock) Now() ticks.Cycles {
	return ticks.Cycles(c.n.Add(1))
}

func testConfig(t *testing.T, testID kernel.TestID, reps int) *config.RunConfig {
	t.Helper()
	rm, err := rankmap.Build(rankmap.Inputs{DefaultT: 2, DefaultTest: int(testID), DefaultBackoff: 1})
	require.NoError(t, err)
	loadFence, storeFence, err := config.FencePolicy(0)
	require.NoError(t, err)
	return &config.RunConfig{
		Repetitions:  reps,
		RankMap:      rm,
		Stride:       1,
		LoadFence:    loadFence,
		StoreFence:   storeFence,
		MemSizeBytes: 4096,
		NLines:       4096 / cline.CacheLineSize,
		Flush:        config.FlushNever,
		BackoffMax:   16,
		SeedCore:     -1,
		NoNUMA:       true,
	}
}

func TestRunClassicModeStoreOnModifiedProducesSamples(t *testing.T) {
	cfg := testConfig(t, kernel.StoreOnModified, 50)
	alloc := &cline.DefaultAllocator{}
	res, err := Run(cfg, alloc, nil, &fakeClock{})
	require.NoError(t, err)
	require.Len(t, res.Workers, 2)

	for r, w := range res.Workers {
		_, _, ok := w.Samples.FirstValid()
		assert.True(t, ok, "rank %d should have at least one recorded sample", r)
	}
}

func TestRunWinsSumNeverExceedsReps(t *testing.T) {
	cfg := testConfig(t, kernel.CASOnModified, 40)
	alloc := &cline.DefaultAllocator{}
	res, err := Run(cfg, alloc, nil, &fakeClock{})
	require.NoError(t, err)

	var total uint64
	for r := 0; r < cfg.RankMap.T; r++ {
		total += res.Tracker.Wins(r)
	}
	assert.LessOrEqual(t, total, uint64(cfg.Repetitions))
}

func TestRunCASUntilSuccessAttemptsBalance(t *testing.T) {
	cfg := testConfig(t, kernel.CASUntilSuccess, 30)
	alloc := &cline.DefaultAllocator{}
	res, err := Run(cfg, alloc, nil, &fakeClock{})
	require.NoError(t, err)
	assert.True(t, res.HasCASUntilSuccess)

	for r := 0; r < cfg.RankMap.T; r++ {
		a, s, f := res.Tracker.CasAttempts[r], res.Tracker.CasSuccesses[r], res.Tracker.CasFailures[r]
		assert.Equal(t, a, s+f, "rank %d: attempts must equal successes+failures", r)
	}
}

func TestGroupBarrierParticipantsStoreOnModifiedExcludesRoleZero(t *testing.T) {
	rm, err := rankmap.Build(rankmap.Inputs{DefaultT: 2, DefaultTest: int(kernel.StoreOnModified), DefaultBackoff: 1})
	require.NoError(t, err)
	b1, b2 := groupBarrierParticipants(rm, false)
	assert.Equal(t, []int{1}, b1, "role 0 never calls bar(1) in STORE_ON_MODIFIED")
	assert.Equal(t, []int{0}, b2)
}

func TestGroupBarrierParticipantsSeedModeCountsEveryRank(t *testing.T) {
	rm, err := rankmap.Build(rankmap.Inputs{DefaultT: 3, DefaultTest: int(kernel.LoadFromModified), DefaultBackoff: 1})
	require.NoError(t, err)
	b1, b2 := groupBarrierParticipants(rm, true)
	assert.Equal(t, []int{3}, b1, "every rank waits on groupB1 unconditionally in seed mode")
	assert.Equal(t, []int{0}, b2)
}

func TestRunClassicModeStoreOnModifiedDoesNotDeadlock(t *testing.T) {
	cfg := testConfig(t, kernel.StoreOnModified, 5)
	alloc := &cline.DefaultAllocator{}
	done := make(chan error, 1)
	go func() {
		_, err := Run(cfg, alloc, nil, &fakeClock{})
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run deadlocked: STORE_ON_MODIFIED's role 0 never calls bar(1)")
	}
}

func TestRunClassicModeNeverRecordsCommonLatency(t *testing.T) {
	cfg := testConfig(t, kernel.CASOnModified, 40)
	alloc := &cline.DefaultAllocator{}
	res, err := Run(cfg, alloc, nil, &fakeClock{})
	require.NoError(t, err)

	for r := 0; r < cfg.RankMap.T; r++ {
		for rep := 0; rep < cfg.Repetitions; rep++ {
			assert.Equal(t, uint64(0), res.Tracker.CommonLatency(r, rep),
				"classic mode has no seeder, so common_latency must stay unrecorded")
		}
	}
}

func TestRunSeedModeWithAuxiliarySeeder(t *testing.T) {
	cfg := testConfig(t, kernel.LoadFromModified, 20)
	cfg.SeedCore = 99 // not among rank_map's cores (0,1) -> auxiliary seeder
	alloc := &cline.DefaultAllocator{}
	res, err := Run(cfg, alloc, nil, &fakeClock{})
	require.NoError(t, err)
	require.Len(t, res.Workers, 2)
}

func TestCasOperandsForceSuccessAlwaysLands(t *testing.T) {
	var word cline.AtomicWord
	word.Store(7)
	w := &Worker{Cfg: &config.RunConfig{ForceSuccess: true}}
	expected, desired := w.casOperands(3, &word)
	assert.Equal(t, uint32(7), expected)
	assert.True(t, word.CAS(expected, desired))
}

func TestCasOperandsWithoutForceSuccessIsOpaqueBitFlip(t *testing.T) {
	var word cline.AtomicWord
	w := &Worker{Cfg: &config.RunConfig{ForceSuccess: false}}
	expected, desired := w.casOperands(4, &word)
	assert.Equal(t, uint32(0), expected) // rep&1 == 0
	assert.Equal(t, uint32(1), desired)
}

func TestNoopSampleAlignsStoreZero(t *testing.T) {
	cfg := testConfig(t, kernel.StoreOnModified, 1)
	w := NewWorker(0, 0, 0, kernel.StoreOnModified, 1, cfg, nil, nil, nil, &fakeClock{}, false, 1)
	w.noopSample(0)
	_, id, ok := w.Samples.FirstValid()
	assert.True(t, ok)
	assert.Equal(t, 0, id)
}

func TestFenceApplicationDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { atomicops.Fence(atomicops.FenceFull) })
}
