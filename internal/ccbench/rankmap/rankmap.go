// Package rankmap converts the raw jagged arrays parsed from the -t, -x
// and -A flags into dense per-rank duty assignments, per spec.md §4.3.
package rankmap

import (
	"github.com/maemo32/ccbench/internal/ccbench/ccerr"
	"github.com/maemo32/ccbench/internal/ccbench/jagged"
)

// RankMap is the dense output of the mapping: core/test/role/group/backoff
// arrays, all indexed by rank, plus the derived group shape.
type RankMap struct {
	Core      []int
	Test      []int
	Role      []int
	Group     []int
	Backoff   []int
	T         int
	NumGroups int
	GroupSize []int
}

// Inputs bundles the raw operator inputs and their defaults. Test and
// Cores may be nil (flag absent); Backoff may be nil.
type Inputs struct {
	Test           jagged.Array // -t
	Cores          jagged.Array // -x
	Backoff        jagged.Array // -A
	DefaultT       int          // -c, used only when Cores is absent
	DefaultTest    int
	DefaultBackoff int
}

// Build applies the shape rules of spec.md §4.3 in order; the first
// matching rule applies.
func Build(in Inputs) (*RankMap, error) {
	if len(in.Cores) == 0 {
		return buildSingleGroup(in)
	}
	return buildFromCores(in)
}

func buildSingleGroup(in Inputs) (*RankMap, error) {
	t := in.DefaultT
	if t <= 0 {
		t = 1
	}
	rm := &RankMap{
		Core:      make([]int, t),
		Test:      make([]int, t),
		Role:      make([]int, t),
		Group:     make([]int, t),
		Backoff:   make([]int, t),
		T:         t,
		NumGroups: 1,
		GroupSize: []int{t},
	}
	for r := 0; r < t; r++ {
		rm.Core[r] = r
		rm.Test[r] = in.DefaultTest
		rm.Role[r] = r // single group spans positions 0..t-1, not all role 0
		rm.Group[r] = 0
	}
	if err := applyBackoff(rm, in); err != nil {
		return nil, err
	}
	return rm, nil
}

func buildFromCores(in Inputs) (*RankMap, error) {
	numGroups := len(in.Cores)
	groupSize := make([]int, numGroups)
	t := 0
	for g, row := range in.Cores {
		groupSize[g] = len(row)
		t += len(row)
	}

	rm := &RankMap{
		Core:      make([]int, t),
		Test:      make([]int, t),
		Role:      make([]int, t),
		Group:     make([]int, t),
		Backoff:   make([]int, t),
		T:         t,
		NumGroups: numGroups,
		GroupSize: groupSize,
	}

	rank := 0
	for g, row := range in.Cores {
		perPosition, uniform, err := resolveGroupTest(in.Test, numGroups, g, groupSize[g])
		if err != nil {
			return nil, err
		}
		for pos, core := range row {
			rm.Core[rank] = core
			rm.Role[rank] = pos
			rm.Group[rank] = g
			if perPosition != nil {
				rm.Test[rank] = perPosition[pos]
			} else {
				rm.Test[rank] = uniform
			}
			rank++
		}
	}

	if err := applyBackoff(rm, in); err != nil {
		return nil, err
	}
	return rm, nil
}

// resolveGroupTest implements the ordered -t shape rules for group g.
// It returns either a per-position slice (len == groupSize) or a single
// uniform test id for the whole group.
func resolveGroupTest(test jagged.Array, numGroups, g, groupSize int) (perPosition []int, uniform int, err error) {
	switch {
	case len(test) == 1 && len(test[0]) == groupSize && numGroups == 1:
		return test[0], 0, nil
	case len(test) == 1 && len(test[0]) >= numGroups:
		return nil, test[0][g], nil
	case len(test) == numGroups && allNonEmpty(test):
		return nil, test[g][0], nil
	default:
		return nil, 0, ccerr.NewConfigError("rankmap.resolveGroupTest", "mismatched -t/-x shapes: -t has %d row(s), -x has %d group(s)", len(test), numGroups)
	}
}

func allNonEmpty(rows jagged.Array) bool {
	for _, r := range rows {
		if len(r) == 0 {
			return false
		}
	}
	return true
}

func applyBackoff(rm *RankMap, in Inputs) error {
	def := in.DefaultBackoff
	if def < 1 {
		def = 1
	}
	for r := range rm.Backoff {
		rm.Backoff[r] = def
	}
	if len(in.Backoff) == 0 {
		return nil
	}
	if len(in.Backoff) != 1 || len(in.Backoff[0]) != rm.T {
		return ccerr.NewConfigError("rankmap.applyBackoff", "-A must be a single row of length T=%d, got %d row(s)", rm.T, len(in.Backoff))
	}
	for r, v := range in.Backoff[0] {
		if v < 1 {
			v = 1
		}
		rm.Backoff[r] = v
	}
	return nil
}
