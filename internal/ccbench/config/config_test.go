package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maemo32/ccbench/internal/ccbench/atomicops"
	"github.com/maemo32/ccbench/internal/ccbench/rankmap"
)

func TestFencePolicyTable(t *testing.T) {
	cases := []struct {
		level      int
		load, store atomicops.FenceKind
	}{
		{0, atomicops.FenceNone, atomicops.FenceNone},
		{1, atomicops.FencePartial, atomicops.FencePartial},
		{2, atomicops.FenceFull, atomicops.FenceFull},
		{3, atomicops.FencePartial, atomicops.FenceNone},
		{4, atomicops.FenceNone, atomicops.FencePartial},
		{5, atomicops.FenceFull, atomicops.FenceNone},
		{6, atomicops.FenceNone, atomicops.FenceFull},
		{7, atomicops.FenceFull, atomicops.FencePartial},
		{8, atomicops.FencePartial, atomicops.FenceFull},
		{9, atomicops.FenceNone, atomicops.FenceDoubleWrite},
	}
	for _, c := range cases {
		load, store, err := FencePolicy(c.level)
		require.NoError(t, err)
		assert.Equal(t, c.load, load, "level %d load", c.level)
		assert.Equal(t, c.store, store, "level %d store", c.level)
	}
}

func TestFencePolicyOutOfRange(t *testing.T) {
	_, _, err := FencePolicy(-1)
	assert.Error(t, err)
	_, _, err = FencePolicy(10)
	assert.Error(t, err)
}

func TestParseMemSizeSuffixes(t *testing.T) {
	cases := map[string]int64{
		"1":   1,
		"4K":  4 * 1024,
		"2M":  2 * 1024 * 1024,
		"1G":  1024 * 1024 * 1024,
		"8k":  8 * 1024,
	}
	for s, want := range cases {
		got, err := ParseMemSize(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
}

func TestParseMemSizeRejectsNonPositive(t *testing.T) {
	_, err := ParseMemSize("0")
	assert.Error(t, err)
	_, err = ParseMemSize("-4K")
	assert.Error(t, err)
}

func TestRoundStride(t *testing.T) {
	cases := map[int]int{
		0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 8: 8, 9: 16, 17: 32,
	}
	for in, want := range cases {
		assert.Equal(t, want, RoundStride(in), "RoundStride(%d)", in)
	}
}

func TestValidateRejectsOversizedReps(t *testing.T) {
	rm, err := rankmap.Build(rankmap.Inputs{DefaultT: 1})
	require.NoError(t, err)
	cfg := &RunConfig{Repetitions: 100, Stride: 8, NLines: 10, Flush: FlushNever, RankMap: rm}
	assert.Error(t, cfg.Validate(true))
}

func TestValidateAllowsFlushBeforeRep(t *testing.T) {
	rm, err := rankmap.Build(rankmap.Inputs{DefaultT: 1})
	require.NoError(t, err)
	cfg := &RunConfig{Repetitions: 100, Stride: 8, NLines: 10, Flush: FlushBeforeRep, RankMap: rm}
	assert.NoError(t, cfg.Validate(true))
}

func TestValidateIgnoredForUnpreconditionedTest(t *testing.T) {
	rm, err := rankmap.Build(rankmap.Inputs{DefaultT: 1})
	require.NoError(t, err)
	cfg := &RunConfig{Repetitions: 1_000_000, Stride: 8, NLines: 1, Flush: FlushNever, RankMap: rm}
	assert.NoError(t, cfg.Validate(false))
}

func TestValidateRejectsStrideBeyondRegionEvenWithFlush(t *testing.T) {
	rm, err := rankmap.Build(rankmap.Inputs{DefaultT: 1})
	require.NoError(t, err)
	cfg := &RunConfig{Repetitions: 10, Stride: 2048, NLines: 1024, Flush: FlushBeforeRep, RankMap: rm}
	assert.Error(t, cfg.Validate(true), "flush-before-rep must not exempt stride from the region-size bound")
}

func TestValidateAllowsStrideEqualToRegionSize(t *testing.T) {
	rm, err := rankmap.Build(rankmap.Inputs{DefaultT: 1})
	require.NoError(t, err)
	cfg := &RunConfig{Repetitions: 1, Stride: 1024, NLines: 1024, Flush: FlushBeforeRep, RankMap: rm}
	assert.NoError(t, cfg.Validate(true))
}
