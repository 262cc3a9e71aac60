// Package config holds the immutable RunConfig built once by cmd/ccbench
// from parsed flags, and the fence-policy table of spec.md §6. Passing
// an immutable config to every worker (instead of the teacher's global
// mutables) is the design-notes §9 rewrite decision this package exists
// to implement.
package config

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/maemo32/ccbench/internal/ccbench/atomicops"
	"github.com/maemo32/ccbench/internal/ccbench/ccerr"
	"github.com/maemo32/ccbench/internal/ccbench/rankmap"
)

// FencePolicy maps a --fence/-e level in [0,9] to a (load, store) mode
// pair, per spec.md §6's table.
func FencePolicy(level int) (load, store atomicops.FenceKind, err error) {
	type pair struct{ load, store atomicops.FenceKind }
	table := []pair{
		0: {atomicops.FenceNone, atomicops.FenceNone},
		1: {atomicops.FencePartial, atomicops.FencePartial},
		2: {atomicops.FenceFull, atomicops.FenceFull},
		3: {atomicops.FencePartial, atomicops.FenceNone},
		4: {atomicops.FenceNone, atomicops.FencePartial},
		5: {atomicops.FenceFull, atomicops.FenceNone},
		6: {atomicops.FenceNone, atomicops.FenceFull},
		7: {atomicops.FenceFull, atomicops.FencePartial},
		8: {atomicops.FencePartial, atomicops.FenceFull},
		9: {atomicops.FenceNone, atomicops.FenceDoubleWrite},
	}
	if level < 0 || level >= len(table) {
		return 0, 0, ccerr.NewConfigError("config.FencePolicy", "fence level %d out of range [0,9]", level)
	}
	p := table[level]
	return p.load, p.store, nil
}

// ParseMemSize parses a byte count with an optional K/M/G suffix
// (case-insensitive, binary multiples: K=1024, M=1024^2, G=1024^3).
func ParseMemSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ccerr.NewConfigError("config.ParseMemSize", "empty size")
	}
	mult := int64(1)
	switch suffix := s[len(s)-1]; suffix {
	case 'k', 'K':
		mult = 1 << 10
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1 << 20
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1 << 30
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, ccerr.NewConfigError("config.ParseMemSize", "invalid size %q: %v", s, err)
	}
	if n <= 0 {
		return 0, ccerr.NewConfigError("config.ParseMemSize", "size must be positive, got %d", n)
	}
	return n * mult, nil
}

// RoundStride rounds a requested stride up to the next power of two, per
// spec.md §6 ("--stride N, -s — stride-hiding factor; rounded up to a
// power of two"). A stride <= 1 is always 1.
func RoundStride(requested int) int {
	if requested <= 1 {
		return 1
	}
	if bits.OnesCount(uint(requested)) == 1 {
		return requested
	}
	shift := bits.Len(uint(requested))
	return 1 << shift
}

// FlushPolicy selects whether the contended line is flushed before each
// repetition.
type FlushPolicy int

const (
	FlushNever FlushPolicy = iota
	FlushBeforeRep
)

// RunConfig is the complete, validated, immutable configuration for one
// benchmark run. It is built once by cmd/ccbench and never mutated
// afterward; every worker receives a pointer to the same instance.
type RunConfig struct {
	Repetitions int
	RankMap     *rankmap.RankMap

	Stride     int // already rounded to a power of two
	FenceLevel int
	LoadFence  atomicops.FenceKind
	StoreFence atomicops.FenceKind

	MemSizeBytes int64
	NLines       int64 // MemSizeBytes / 64, at least 1

	Flush      FlushPolicy
	ForceSuccess bool
	Backoff      bool
	BackoffMax   int

	MLock  bool
	NoNUMA bool

	Verbose bool
	Print   int // --print value; stored only, no component reads it

	SeedCore int // -1 if no seed core configured (classic mode)
}

// Validate checks the cross-field invariants of spec.md §7: impossible
// stride/repetition combinations for preconditioned (non-flush) tests,
// and -A length already checked by rankmap.Build.
//
// preconditionedTest reports whether the selected kernel family requires
// the stride-hiding walk to stay within the region for every repetition
// without a fresh flush each time (pointer-chase and pure fence kernels
// are exempt — they do not contend with §4.6's "stride is ignored for
// this test" kernels, and flush-before-rep tests re-establish Invalid
// state every round regardless of prior strides).
func (c *RunConfig) Validate(preconditionedTest bool) error {
	if preconditionedTest && c.Stride > int(c.NLines) {
		return ccerr.NewConfigError("RunConfig.Validate",
			"stride (%d) exceeds region size in lines (%d)", c.Stride, c.NLines)
	}
	if preconditionedTest && c.Flush == FlushNever {
		need := int64(c.Repetitions) * int64(c.Stride)
		if need > c.NLines {
			return ccerr.NewConfigError("RunConfig.Validate",
				"reps*stride (%d) exceeds region size in lines (%d) for a preconditioned, non-flush test", need, c.NLines)
		}
	}
	return nil
}

// String renders a one-line config summary for the startup log line.
func (c *RunConfig) String() string {
	return fmt.Sprintf("reps=%d T=%d stride=%d fence=%d mem=%dB flush=%v seed=%d",
		c.Repetitions, c.RankMap.T, c.Stride, c.FenceLevel, c.MemSizeBytes, c.Flush == FlushBeforeRep, c.SeedCore)
}
