// Package report implements the Reporter of spec.md §4.8: it reads the
// PFD stores and race-tracker arrays strictly after every worker (and
// any auxiliary seeder) has joined, and writes the stable, line-oriented
// summary format of spec.md §6 to an io.Writer.
//
// The Printf-driven, section-by-section rendering here follows
// luxfi-consensus/cmd/consensus/benchmark.go's reporting style (plain
// fmt.Fprintf blocks, no templating library) rather than introducing a
// table/terminal-UI dependency nothing else in the pack uses for this.
package report

import (
	"fmt"
	"io"

	"github.com/maemo32/ccbench/internal/ccbench/engine"
	"github.com/maemo32/ccbench/internal/ccbench/rankmap"
)

// SocketPolicy maps a physical core id to a socket index. The default
// (parity of the core id) is a platform-specific heuristic spec.md §9
// explicitly asks to expose as an injectable policy rather than bake in.
type SocketPolicy func(core int) int

// DefaultSocketPolicy implements spec.md §4.8's default roll-up: even
// physical core ids belong to socket 0, odd ids to socket 1.
func DefaultSocketPolicy(core int) int { return core % 2 }

// rankStat is the per-rank summary the Reporter derives from each
// worker's first valid PFDStore, threaded through the summary/roll-up
// helpers below.
type rankStat struct {
	core    int
	rank    int
	avg     float64
	min     uint64
	max     uint64
	samples int
}

// Write renders res to w using policy for the per-socket roll-up.
func Write(w io.Writer, res *engine.Result, policy SocketPolicy) error {
	if policy == nil {
		policy = DefaultSocketPolicy
	}
	rm := res.Cfg.RankMap

	fmt.Fprintf(w, "Rank map: %d thread(s) across %d group(s)\n", rm.T, rm.NumGroups)
	for g := 0; g < rm.NumGroups; g++ {
		fmt.Fprintf(w, "  group %d: size %d\n", g, rm.GroupSize[g])
	}

	stats := make([]rankStat, rm.T)

	for r, worker := range res.Workers {
		store, storeID, ok := worker.Samples.FirstValid()
		_ = storeID
		if !ok {
			fmt.Fprintf(w, "Core number %d is using thread: %d. no samples recorded\n", rm.Role[r], rm.Core[r])
			continue
		}
		s := store.Stats()
		fmt.Fprintf(w, "Core number %d is using thread: %d. with: avg %.2f cycles (min %d | max %d), std dev: %.2f, abs dev: %.2f\n",
			rm.Role[r], rm.Core[r], s.Avg, s.Min, s.Max, s.StdDev, s.AbsDev)
		stats[r] = rankStat{core: rm.Core[r], rank: r, avg: s.Avg, min: s.Min, max: s.Max, samples: s.Samples}
	}

	writeSummary(w, stats)
	writeSocketRollup(w, stats, policy)
	writeWins(w, res, rm)
	writeCommonLatency(w, res, rm)
	if res.HasCASUntilSuccess {
		writeCASStats(w, res, rm)
	}
	writeFairness(w, res)
	return nil
}

func writeSummary(w io.Writer, stats []rankStat) {
	var sum float64
	n := 0
	minAvg, maxAvg := 0.0, 0.0
	minCore, maxCore := -1, -1
	for _, s := range stats {
		if s.samples == 0 {
			continue
		}
		if n == 0 || s.avg < minAvg {
			minAvg, minCore = s.avg, s.core
		}
		if n == 0 || s.avg > maxAvg {
			maxAvg, maxCore = s.avg, s.core
		}
		sum += s.avg
		n++
	}
	if n == 0 {
		fmt.Fprintln(w, "Summary : no samples recorded")
		return
	}
	fmt.Fprintf(w, "Summary : mean avg %.2f cycles | min avg %.2f (core %d) | max avg %.2f (core %d)\n",
		sum/float64(n), minAvg, minCore, maxAvg, maxCore)
}

func writeSocketRollup(w io.Writer, stats []rankStat, policy SocketPolicy) {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, s := range stats {
		if s.samples == 0 {
			continue
		}
		sock := policy(s.core)
		sums[sock] += s.avg
		counts[sock]++
	}
	for sock := 0; sock < 2; sock++ {
		if counts[sock] == 0 {
			continue
		}
		fmt.Fprintf(w, "Socket %d: mean avg %.2f cycles over %d thread(s)\n", sock, sums[sock]/float64(counts[sock]), counts[sock])
	}
}

func writeWins(w io.Writer, res *engine.Result, rm *rankmap.RankMap) {
	for r := 0; r < rm.T; r++ {
		fmt.Fprintf(w, "Group %d role %d on thread %d (thread ID %d): %d wins\n",
			rm.Group[r], rm.Role[r], rm.Core[r], r, res.Tracker.Wins(r))
	}
}

func writeCommonLatency(w io.Writer, res *engine.Result, rm *rankmap.RankMap) {
	reps := res.Tracker.NReps()
	for r := 0; r < rm.T; r++ {
		var sum, n uint64
		min := ^uint64(0)
		var max uint64
		for rep := 0; rep < reps; rep++ {
			v := res.Tracker.CommonLatency(r, rep)
			if v == 0 {
				continue
			}
			sum += v
			n++
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "Thread %d common-start latency: mean %.2f | min %d | max %d cycles (%d sample(s))\n",
			r, float64(sum)/float64(n), min, max, n)
	}
}

func writeCASStats(w io.Writer, res *engine.Result, rm *rankmap.RankMap) {
	for r := 0; r < rm.T; r++ {
		a, s, f := res.Tracker.CasAttempts[r], res.Tracker.CasSuccesses[r], res.Tracker.CasFailures[r]
		if a == 0 {
			continue
		}
		fmt.Fprintf(w, "Thread %d retry-until-success: attempts %d, successes %d, failures %d\n", r, a, s, f)
	}
}

// writeFairness reports, per spec.md §4.8, the agreement between the
// first_winner rank and the rank achieving the minimum common_latency
// for each repetition — a fairness consistency metric.
func writeFairness(w io.Writer, res *engine.Result) {
	reps := res.Tracker.NReps()
	rm := res.Cfg.RankMap
	agree, checked := 0, 0
	for rep := 0; rep < reps; rep++ {
		winner := res.Tracker.FirstWinner(rep)
		if winner < 0 {
			continue
		}
		best, bestLatency := -1, uint64(0)
		for r := 0; r < rm.T; r++ {
			v := res.Tracker.CommonLatency(r, rep)
			if v == 0 {
				continue
			}
			if best < 0 || v < bestLatency {
				best, bestLatency = r, v
			}
		}
		if best < 0 {
			continue
		}
		checked++
		if best == int(winner) {
			agree++
		}
	}
	if checked == 0 {
		return
	}
	fmt.Fprintf(w, "Fairness: first-winner agrees with min-common-latency rank in %d/%d rep(s) (%.1f%%)\n",
		agree, checked, 100*float64(agree)/float64(checked))
}
