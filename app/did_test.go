package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causalkit/domain/core"
	"causalkit/domain/dataset"
	"causalkit/internal/testkit"
)

func TestDiDEstimate(t *testing.T) {
	g := testkit.DiDGraph()
	ds := testkit.DiDDataset(500, 42)

	est, err := NewDiD(g, "outcome", "group", "period", testFitter(t))
	require.NoError(t, err)

	res, err := est.Fit(ds)
	require.NoError(t, err)

	assert.InDelta(t, testkit.TrueDiDEffect, res.Effect, 0.15)
	assert.Greater(t, res.UnadjustedEffect, res.Effect,
		"the treated group starts higher, so the raw post-period gap overstates the effect")
	assert.Empty(t, res.AdjustmentSet, "identification comes from the interaction design")
	assert.Less(t, res.PValue, 0.001)
}

func TestDiDRequiresBinaryGroupAndTime(t *testing.T) {
	g := testkit.DiDGraph()
	base := testkit.DiDDataset(50, 7)

	est, err := NewDiD(g, "outcome", "group", "period", testFitter(t))
	require.NoError(t, err)

	continuous := make([]float64, base.Len())
	for i := range continuous {
		continuous[i] = float64(i) * 0.1
	}

	badGroup, err := base.WithReplacedColumn("group", continuous)
	require.NoError(t, err)
	_, err = est.Fit(badGroup)
	requireValidation(t, err, core.ErrNotBinary)

	badTime, err := base.WithReplacedColumn("period", continuous)
	require.NoError(t, err)
	_, err = est.Fit(badTime)
	requireValidation(t, err, core.ErrNotBinary)
}

func TestDiDRequiresBothLevels(t *testing.T) {
	g := testkit.DiDGraph()
	base := testkit.DiDDataset(50, 7)

	est, err := NewDiD(g, "outcome", "group", "period", testFitter(t))
	require.NoError(t, err)

	allTreated := make([]float64, base.Len())
	for i := range allTreated {
		allTreated[i] = 1
	}
	bad, err := base.WithReplacedColumn("group", allTreated)
	require.NoError(t, err)

	_, err = est.Fit(bad)
	requireValidation(t, err, core.ErrMissingLevel)
}

func TestDiDInteractionNameAvoidsCollision(t *testing.T) {
	// A pre-existing column named like the interaction must not be clobbered.
	g := testkit.DiDGraph()
	base := testkit.DiDDataset(50, 7)

	taken := make([]float64, base.Len())
	ds, err := base.WithColumn("group_x_period", taken)
	require.NoError(t, err)

	est, err := NewDiD(g, "outcome", "group", "period", testFitter(t))
	require.NoError(t, err)

	res, err := est.Fit(ds)
	require.NoError(t, err)
	assert.InDelta(t, testkit.TrueDiDEffect, res.Effect, 0.6)
}

func TestDiDRefuteRunsAllChecks(t *testing.T) {
	g := testkit.DiDGraph()
	ds := testkit.DiDDataset(500, 42)

	est, err := NewDiD(g, "outcome", "group", "period", testFitter(t))
	require.NoError(t, err)
	res, err := est.Fit(ds)
	require.NoError(t, err)

	report := res.Refute(ds)
	checks := report.Checks()
	require.Len(t, checks, 3)
	assert.Equal(t, "Placebo group", checks[0].Name)
	assert.Equal(t, "Placebo time", checks[1].Name)
	assert.True(t, checks[2].Passed, "noise covariate must not move the interaction estimate: %s", checks[2].Detail)
}

func TestDiDPostPeriodDifference(t *testing.T) {
	ds, err := dataset.FromColumns([]string{"y", "g", "p"}, map[string][]float64{
		"y": {1, 2, 10, 20},
		"g": {0, 1, 0, 1},
		"p": {0, 0, 1, 1},
	})
	require.NoError(t, err)

	diff, err := postPeriodDifference(ds, "y", "g", "p")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, diff, 1e-12)
}
