package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorsAreDeterministic(t *testing.T) {
	a := ConfoundedDataset(100, 42)
	b := ConfoundedDataset(100, 42)
	assert.Equal(t, a.MustColumn("income"), b.MustColumn("income"))

	c := ConfoundedDataset(100, 43)
	assert.NotEqual(t, a.MustColumn("income"), c.MustColumn("income"))
}

func TestRCTDatasetTreatmentIsBinary(t *testing.T) {
	ds := RCTDataset(200, 7)
	assert.True(t, ds.IsBinary("treatment"))
	assert.True(t, ds.HasBothLevels("treatment"))
}

func TestDiDDatasetIsBalanced(t *testing.T) {
	ds := DiDDataset(25, 7)
	require.Equal(t, 100, ds.Len())
	assert.True(t, ds.IsBinary("group"))
	assert.True(t, ds.IsBinary("period"))
}

func TestMatchingDatasetShape(t *testing.T) {
	ds := MatchingDataset(300, 7)
	assert.True(t, ds.IsBinary("treatment"))
	assert.True(t, ds.HasBothLevels("treatment"))
	assert.True(t, ds.Has("severity"))
}

func TestGraphsAreWellFormed(t *testing.T) {
	assert.True(t, EducationGraph().HasNode("ability"))
	assert.True(t, InstrumentGraph().HasNode("proximity"))
	assert.True(t, MatchingGraph().HasNode("severity"))
	assert.Empty(t, RCTGraph().Parents("treatment"))
	assert.True(t, DiDGraph().HasNode("period"))
}
