package jagged

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlatRow(t *testing.T) {
	arr, err := Parse("[1,2,3]")
	require.NoError(t, err)
	assert.Equal(t, Array{{1, 2, 3}}, arr)
}

func TestParseNestedRows(t *testing.T) {
	arr, err := Parse("[[1,2],[3]]")
	require.NoError(t, err)
	assert.Equal(t, Array{{1, 2}, {3}}, arr)
}

func TestParseRange(t *testing.T) {
	arr, err := Parse("[1...4]")
	require.NoError(t, err)
	assert.Equal(t, Array{{1, 2, 3, 4}}, arr)
}

func TestParseDescendingRange(t *testing.T) {
	arr, err := Parse("[4...1]")
	require.NoError(t, err)
	assert.Equal(t, Array{{4, 3, 2, 1}}, arr)
}

func TestParseEmpty(t *testing.T) {
	arr, err := Parse("[]")
	require.NoError(t, err)
	assert.Equal(t, Array{}, arr)
}

func TestParseErrors(t *testing.T) {
	cases := []string{"", "[1,2", "1,2]", "[1,,2]", "[abc]", "[1][2]"}
	for _, c := range cases {
		_, err := Parse(c)
		assert.Errorf(t, err, "expected error parsing %q", c)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	cases := []string{"[1,2,3]", "[[1,2],[3]]", "[[1],[2],[3]]"}
	for _, c := range cases {
		arr, err := Parse(c)
		require.NoError(t, err)
		s := Serialize(arr)
		arr2, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, arr, arr2, "Parse(Serialize(a)) must equal a for %q", c)
	}
}

func TestFlagSetAndString(t *testing.T) {
	var f Flag
	assert.Equal(t, "", f.String())
	require.NoError(t, f.Set("[[1,2],[3]]"))
	assert.Equal(t, Array{{1, 2}, {3}}, f.Value)
	assert.Equal(t, "[[1,2],[3]]", f.String())
	assert.Equal(t, "jagged", f.Type())
}

func TestFlagSetError(t *testing.T) {
	var f Flag
	assert.Error(t, f.Set("not-an-array"))
}
