package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maemo32/ccbench/internal/ccbench/config"
	"github.com/maemo32/ccbench/internal/ccbench/engine"
	"github.com/maemo32/ccbench/internal/ccbench/kernel"
	"github.com/maemo32/ccbench/internal/ccbench/rankmap"
	"github.com/maemo32/ccbench/internal/ccbench/ticks"
	"github.com/maemo32/ccbench/internal/ccbench/tracker"
)

func buildResult(t *testing.T, withSample bool) *engine.Result {
	t.Helper()
	rm, err := rankmap.Build(rankmap.Inputs{DefaultT: 2, DefaultTest: int(kernel.StoreOnModified)})
	require.NoError(t, err)
	cfg := &config.RunConfig{Repetitions: 5, RankMap: rm}
	trk := tracker.New(rm.T, cfg.Repetitions)

	workers := make([]*engine.Worker, rm.T)
	for r := range workers {
		workers[r] = engine.NewWorker(r, 0, r, kernel.StoreOnModified, 1, cfg, nil, nil, trk, nil, false, uint64(r)+1)
	}
	if withSample {
		workers[0].Samples.Store(0).Record(0, 100)
		workers[0].Samples.Store(0).Record(1, 200)
		trk.PublishRoundStart(0, ticks.Cycles(0))
		trk.TryClaim(0, 0)
		trk.RecordSuccess(0, 0, ticks.Cycles(150))
	}
	return &engine.Result{Cfg: cfg, Workers: workers, Tracker: trk}
}

func TestWriteNoSamplesRecorded(t *testing.T) {
	res := buildResult(t, false)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, nil))
	assert.Contains(t, buf.String(), "no samples recorded")
}

func TestWriteWithSamples(t *testing.T) {
	res := buildResult(t, true)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, nil))
	out := buf.String()
	assert.Contains(t, out, "Core number 0 is using thread: 0")
	assert.Contains(t, out, "wins")
	assert.Contains(t, out, "common-start latency")
}

func TestDefaultSocketPolicyParity(t *testing.T) {
	assert.Equal(t, 0, DefaultSocketPolicy(0))
	assert.Equal(t, 1, DefaultSocketPolicy(1))
	assert.Equal(t, 0, DefaultSocketPolicy(2))
}

func TestWriteCASStatsOnlyWhenFlagSet(t *testing.T) {
	res := buildResult(t, true)
	res.Tracker.CasAttempts[0] = 3
	res.Tracker.CasSuccesses[0] = 2
	res.Tracker.CasFailures[0] = 1

	var without bytes.Buffer
	require.NoError(t, Write(&without, res, nil))
	assert.NotContains(t, without.String(), "retry-until-success")

	res.HasCASUntilSuccess = true
	var with bytes.Buffer
	require.NoError(t, Write(&with, res, nil))
	assert.Contains(t, with.String(), "retry-until-success")
}

func TestWriteFairnessAgreement(t *testing.T) {
	res := buildResult(t, true)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, nil))
	assert.Contains(t, buf.String(), "Fairness")
	assert.True(t, strings.Contains(buf.String(), "1/1") || strings.Contains(buf.String(), "agrees"))
}

