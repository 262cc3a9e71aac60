package pfd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAndStats(t *testing.T) {
	s := NewStore(4)
	s.Record(0, 10)
	s.Record(1, 20)
	s.Record(2, 30)
	assert.Equal(t, 3, s.Count())

	stats := s.Stats()
	assert.Equal(t, 3, stats.Samples)
	assert.Equal(t, uint64(10), stats.Min)
	assert.Equal(t, uint64(30), stats.Max)
	assert.InDelta(t, 20.0, stats.Avg, 1e-9)
	assert.Greater(t, stats.StdDev, 0.0)
	assert.Greater(t, stats.AbsDev, 0.0)
}

func TestRecordIgnoresSecondWriteToSameRep(t *testing.T) {
	s := NewStore(2)
	s.Record(0, 5)
	s.Record(0, 99)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, uint64(5), s.Stats().Min)
}

func TestRecordOutOfRangeIgnored(t *testing.T) {
	s := NewStore(2)
	s.Record(-1, 1)
	s.Record(2, 1)
	assert.Equal(t, 0, s.Count())
}

func TestStatsOnEmptyStoreIsZeroValue(t *testing.T) {
	s := NewStore(4)
	stats := s.Stats()
	assert.Equal(t, AbsDeviation{}, stats)
}

func TestSetFirstValidSkipsEmptyStores(t *testing.T) {
	set := NewSet(3, 2)
	_, _, ok := set.FirstValid()
	assert.False(t, ok, "a Set with no recorded samples has no valid store")

	set.Store(1).Record(0, 7)
	store, id, ok := set.FirstValid()
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Same(t, set.Store(1), store)
}
