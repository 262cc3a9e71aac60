// Command ccbench drives the cache-coherence microbenchmark engine: it
// parses the rank-mapping and policy flags, builds an immutable
// config.RunConfig, runs the engine, and prints the Reporter's summary
// to stdout. Flag wiring follows luxfi-consensus/cmd/consensus/{main,bench}.go's
// style: a single root cobra.Command, flags bound directly into local
// vars via pflag, RunE returning the error cobra reports.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maemo32/ccbench/internal/ccbench/ccerr"
	"github.com/maemo32/ccbench/internal/ccbench/cline"
	"github.com/maemo32/ccbench/internal/ccbench/config"
	"github.com/maemo32/ccbench/internal/ccbench/engine"
	"github.com/maemo32/ccbench/internal/ccbench/jagged"
	"github.com/maemo32/ccbench/internal/ccbench/kernel"
	"github.com/maemo32/ccbench/internal/ccbench/logx"
	"github.com/maemo32/ccbench/internal/ccbench/rankmap"
	"github.com/maemo32/ccbench/internal/ccbench/report"
	"github.com/maemo32/ccbench/internal/ccbench/ticks"
)

// Exit codes per spec.md §7's error taxonomy.
const (
	exitOK          = 0
	exitOther       = 1
	exitConfigError = 2
	exitAllocError  = 3
	exitSystemError = 4
)

type flags struct {
	repetitions int
	test        jagged.Flag
	coresArray  jagged.Flag
	cores       int
	seedCore    int
	stride      int
	fenceLevel  int
	memSize     string
	flush       bool
	success     bool
	backoff     bool
	backoffMax  int
	backoffArr  jagged.Flag
	mlock       bool
	noNUMA      bool
	verbose     bool
	print       int
	catalogue   bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "ccbench",
		Short: "Cache-coherence microbenchmark engine",
		Long: "ccbench pins one OS thread per rank, primes the shared cache line into a\n" +
			"chosen MOESI state, and measures the cycle cost of a contended load, store,\n" +
			"or atomic RMW against it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&f.repetitions, "repetitions", "r", 1_000_000, "number of rounds")
	fs.VarP(&f.test, "test", "t", "jagged array of test ids, e.g. [12] or [[12],[13]]")
	fs.VarP(&f.coresArray, "cores_array", "x", "jagged array of physical core ids")
	fs.IntVarP(&f.cores, "cores", "c", 2, "legacy thread count, used when -x is absent")
	fs.IntVarP(&f.seedCore, "seed", "b", -1, "prime core for each repetition; absent means classic mode")
	fs.IntVarP(&f.stride, "stride", "s", 1, "stride-hiding factor, rounded up to a power of two")
	fs.IntVarP(&f.fenceLevel, "fence", "e", 2, "fence policy 0..9")
	fs.StringVarP(&f.memSize, "mem-size", "m", "64K", "buffer size, accepts K/M/G suffix")
	fs.BoolVarP(&f.flush, "flush", "f", false, "flush the contended line before each repetition")
	fs.BoolVarP(&f.success, "success", "u", false, "force atomic ops to always succeed")
	fs.BoolVarP(&f.backoff, "backoff", "B", false, "enable exponential backoff in retry-until-success")
	fs.IntVarP(&f.backoffMax, "backoff-max", "M", 1024, "cap on pause iterations")
	fs.VarP(&f.backoffArr, "backoff-array", "A", "per-rank backoff caps; length must equal T")
	fs.BoolVarP(&f.mlock, "mlock", "K", false, "best-effort page lock")
	fs.BoolVarP(&f.noNUMA, "no-numa", "n", false, "disable NUMA-local placement")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose per-sample logging")
	fs.IntVarP(&f.print, "print", "p", 0, "per-sample print interval; stored in the run config, no samples are printed")
	fs.BoolVar(&f.catalogue, "catalogue", false, "print the test_id catalogue and exit")

	return cmd
}

func run(f flags) error {
	log := logx.New(f.verbose)

	if f.catalogue {
		printCatalogue()
		return nil
	}

	cfg, testID, err := buildConfig(f)
	if err != nil {
		log.Fatal(err)
		return err
	}
	log.Phase("SETUP", map[string]any{"config": cfg.String(), "test": testID.Name()})

	alloc := cline.NewDefaultAllocator()
	affinity := cline.PlatformAffinity()
	clock := ticks.NewWallClock(ticks.EstimatedHz)

	res, err := engine.Run(cfg, alloc, affinity, clock)
	if err != nil {
		log.Fatal(err)
		return err
	}
	log.Phase("DONE", map[string]any{"reps": cfg.Repetitions})

	return report.Write(os.Stdout, res, nil)
}

// buildConfig assembles a rankmap.RankMap and config.RunConfig from the
// parsed flags, in the order spec.md §4.3/§6 describes: rank mapping
// first (since Validate needs T), then fence/size/stride derivation.
func buildConfig(f flags) (*config.RunConfig, kernel.TestID, error) {
	defaultBackoff := f.backoffMax
	if defaultBackoff < 1 {
		defaultBackoff = 1
	}

	rm, err := rankmap.Build(rankmap.Inputs{
		Test:           f.test.Value,
		Cores:          f.coresArray.Value,
		Backoff:        f.backoffArr.Value,
		DefaultT:       f.cores,
		DefaultTest:    int(kernel.StoreOnModified),
		DefaultBackoff: defaultBackoff,
	})
	if err != nil {
		return nil, 0, err
	}

	loadFence, storeFence, err := config.FencePolicy(f.fenceLevel)
	if err != nil {
		return nil, 0, err
	}

	memBytes, err := config.ParseMemSize(f.memSize)
	if err != nil {
		return nil, 0, err
	}
	stride := config.RoundStride(f.stride)
	nLines := memBytes / cline.CacheLineSize
	if nLines < 1 {
		nLines = 1
	}

	flushPolicy := config.FlushNever
	if f.flush {
		flushPolicy = config.FlushBeforeRep
	}

	cfg := &config.RunConfig{
		Repetitions:  f.repetitions,
		RankMap:      rm,
		Stride:       stride,
		FenceLevel:   f.fenceLevel,
		LoadFence:    loadFence,
		StoreFence:   storeFence,
		MemSizeBytes: memBytes,
		NLines:       nLines,
		Flush:        flushPolicy,
		ForceSuccess: f.success,
		Backoff:      f.backoff,
		BackoffMax:   f.backoffMax,
		MLock:        f.mlock,
		NoNUMA:       f.noNUMA,
		Verbose:      f.verbose,
		Print:        f.print,
		SeedCore:     f.seedCore,
	}

	if len(rm.Test) == 0 {
		return nil, 0, ccerr.NewConfigError("main.buildConfig", "rank map produced zero ranks")
	}
	anyPreconditioned := false
	for _, t := range rm.Test {
		testID := kernel.TestID(t)
		if !kernel.Valid(testID) {
			return nil, 0, ccerr.NewConfigError("main.buildConfig", "unknown test_id %d", t)
		}
		if kernel.RequiresPrecondition(testID) {
			anyPreconditioned = true
		}
	}
	if err := cfg.Validate(anyPreconditioned); err != nil {
		return nil, 0, err
	}

	return cfg, kernel.TestID(rm.Test[0]), nil
}

func printCatalogue() {
	for t := kernel.TestID(0); t < kernel.NumTestIDs; t++ {
		fmt.Printf("%3d  %s\n", int(t), t.Name())
	}
}

// exitCodeFor maps the engine's error taxonomy onto the process exit
// code per spec.md §7.
func exitCodeFor(err error) int {
	switch err.(type) {
	case *ccerr.ConfigError:
		return exitConfigError
	case *ccerr.AllocError:
		return exitAllocError
	case *ccerr.SystemError:
		return exitSystemError
	default:
		return exitOther
	}
}
