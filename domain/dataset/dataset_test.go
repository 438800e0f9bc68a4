package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := FromColumns([]string{"x", "y"}, map[string][]float64{
		"x": {1, 2, 3},
		"y": {4, 5, 6},
	})
	require.NoError(t, err)
	return ds
}

func TestFromColumnsValidation(t *testing.T) {
	_, err := FromColumns(nil, nil)
	assert.Error(t, err)

	_, err = FromColumns([]string{"x"}, map[string][]float64{})
	assert.Error(t, err)

	_, err = FromColumns([]string{"x", "y"}, map[string][]float64{
		"x": {1, 2},
		"y": {1, 2, 3},
	})
	assert.Error(t, err)
}

func TestColumnAccess(t *testing.T) {
	ds := sample(t)

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"x", "y"}, ds.Columns())
	assert.True(t, ds.Has("x"))
	assert.False(t, ds.Has("z"))

	vals, ok := ds.Column("y")
	require.True(t, ok)
	assert.Equal(t, []float64{4, 5, 6}, vals)

	assert.Panics(t, func() { ds.MustColumn("z") })
}

func TestWithColumn(t *testing.T) {
	ds := sample(t)

	augmented, err := ds.WithColumn("z", []float64{7, 8, 9})
	require.NoError(t, err)
	assert.True(t, augmented.Has("z"))
	assert.False(t, ds.Has("z"), "original dataset must be untouched")

	_, err = ds.WithColumn("x", []float64{0, 0, 0})
	assert.Error(t, err, "duplicate column name")

	_, err = ds.WithColumn("z", []float64{1})
	assert.Error(t, err, "length mismatch")
}

func TestWithReplacedColumn(t *testing.T) {
	ds := sample(t)

	replaced, err := ds.WithReplacedColumn("x", []float64{9, 9, 9})
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 9, 9}, replaced.MustColumn("x"))
	assert.Equal(t, []float64{1, 2, 3}, ds.MustColumn("x"))

	_, err = ds.WithReplacedColumn("missing", []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestDrop(t *testing.T) {
	ds := sample(t)
	dropped := ds.Drop("y")
	assert.Equal(t, []string{"x"}, dropped.Columns())
	assert.True(t, ds.Has("y"))
}

func TestSelectResamples(t *testing.T) {
	ds := sample(t)
	picked := ds.Select([]int{2, 2, 0})
	assert.Equal(t, 3, picked.Len())
	assert.Equal(t, []float64{3, 3, 1}, picked.MustColumn("x"))
	assert.Equal(t, []float64{6, 6, 4}, picked.MustColumn("y"))
}

func TestFreeColumnName(t *testing.T) {
	ds := sample(t)
	assert.Equal(t, "noise", ds.FreeColumnName("noise"))
	assert.Equal(t, "_x", ds.FreeColumnName("x"))
}

func TestIsBinary(t *testing.T) {
	ds, err := FromColumns([]string{"b", "c", "ones"}, map[string][]float64{
		"b":    {0, 1, 1},
		"c":    {0, 1, 2},
		"ones": {1, 1, 1},
	})
	require.NoError(t, err)

	assert.True(t, ds.IsBinary("b"))
	assert.False(t, ds.IsBinary("c"))
	assert.True(t, ds.IsBinary("ones"))
	assert.False(t, ds.IsBinary("missing"))

	assert.True(t, ds.HasBothLevels("b"))
	assert.False(t, ds.HasBothLevels("ones"))
}
