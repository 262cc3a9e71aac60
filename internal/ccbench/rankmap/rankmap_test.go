package rankmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maemo32/ccbench/internal/ccbench/jagged"
)

func TestBuildSingleGroupDefault(t *testing.T) {
	rm, err := Build(Inputs{DefaultT: 4, DefaultTest: 7, DefaultBackoff: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, rm.T)
	assert.Equal(t, 1, rm.NumGroups)
	for r := 0; r < rm.T; r++ {
		assert.Equal(t, r, rm.Core[r])
		assert.Equal(t, 7, rm.Test[r])
		assert.Equal(t, r, rm.Role[r], "single-group ranks occupy distinct role positions, not all role 0")
		assert.Equal(t, 0, rm.Group[r])
	}
}

func TestBuildSingleGroupMinimumOne(t *testing.T) {
	rm, err := Build(Inputs{DefaultT: 0, DefaultTest: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, rm.T, "T=1 must still produce one rank")
}

func TestBuildFromCoresUniformTestPerGroup(t *testing.T) {
	rm, err := Build(Inputs{
		Cores: jagged.Array{{0, 1}, {2, 3}},
		Test:  jagged.Array{{10, 11}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rm.T)
	assert.Equal(t, 2, rm.NumGroups)
	assert.Equal(t, []int{10, 10, 11, 11}, rm.Test)
	assert.Equal(t, []int{0, 1, 0, 1}, rm.Role)
	assert.Equal(t, []int{0, 0, 1, 1}, rm.Group)
}

func TestBuildFromCoresPerPositionTest(t *testing.T) {
	rm, err := Build(Inputs{
		Cores: jagged.Array{{0, 1}},
		Test:  jagged.Array{{20, 21}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 21}, rm.Test)
}

func TestBuildFromCoresPerGroupRow(t *testing.T) {
	rm, err := Build(Inputs{
		Cores: jagged.Array{{0}, {1}},
		Test:  jagged.Array{{30}, {31}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{30, 31}, rm.Test)
}

func TestBuildMismatchedShapesIsConfigError(t *testing.T) {
	_, err := Build(Inputs{
		Cores: jagged.Array{{0, 1}, {2, 3}},
		Test:  jagged.Array{{10}},
	})
	assert.Error(t, err)
}

func TestBackoffArrayAppliedPerRank(t *testing.T) {
	rm, err := Build(Inputs{
		DefaultT: 3,
		Backoff:  jagged.Array{{4, 5, 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6}, rm.Backoff)
}

func TestBackoffArrayZeroEntriesClampToOne(t *testing.T) {
	rm, err := Build(Inputs{
		DefaultT: 2,
		Backoff:  jagged.Array{{0, -3}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, rm.Backoff, "-A entries below 1 must clamp to 1")
}

func TestBackoffArrayWrongLengthIsConfigError(t *testing.T) {
	_, err := Build(Inputs{
		DefaultT: 3,
		Backoff:  jagged.Array{{1, 2}},
	})
	assert.Error(t, err)
}
