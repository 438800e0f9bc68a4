package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causalkit/domain/core"
	"causalkit/domain/identify"
	"causalkit/internal/testkit"
)

func TestMatchingRequiresBinaryTreatment(t *testing.T) {
	g := testkit.EducationGraph()
	ds := testkit.ConfoundedDataset(200, 5) // education is continuous

	est, err := NewMatching(g, "education", "income", testFitter(t))
	require.NoError(t, err)

	_, err = est.Fit(ds)
	requireValidation(t, err, core.ErrNotBinary)
}

func TestMatchingMissingConfounderIsFatal(t *testing.T) {
	g := testkit.MatchingGraph()
	ds := testkit.MatchingDataset(300, 5).Drop("severity")

	est, err := NewMatching(g, "treatment", "outcome", testFitter(t))
	require.NoError(t, err)

	_, err = est.Fit(ds)
	require.Error(t, err)

	var ierr *identify.IdentificationError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, []string{"severity"}, ierr.Missing)
}

func TestMatchingEstimatesATT(t *testing.T) {
	g := testkit.MatchingGraph()
	ds := testkit.MatchingDataset(800, 42)

	est, err := NewMatching(g, "treatment", "outcome", testFitter(t), WithConfig(fastConfig()))
	require.NoError(t, err)

	res, err := est.Fit(ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"severity"}, res.AdjustmentSet)
	assert.InDelta(t, testkit.TrueATT, res.Effect, 0.35)
	assert.Greater(t, res.UnadjustedEffect, res.Effect,
		"severity raises both treatment uptake and the outcome, inflating the naive gap")
	assert.Greater(t, res.StdErr, 0.0)
	assert.Greater(t, res.BootstrapReplicates, 50)
	assert.Less(t, res.ConfInt[0], res.ConfInt[1])
	assert.Less(t, res.PValue, 0.05)
}

func TestMatchingRefuteRunsChecks(t *testing.T) {
	g := testkit.MatchingGraph()
	ds := testkit.MatchingDataset(800, 42)

	est, err := NewMatching(g, "treatment", "outcome", testFitter(t), WithConfig(fastConfig()))
	require.NoError(t, err)
	res, err := est.Fit(ds)
	require.NoError(t, err)

	report := res.Refute(ds)
	checks := report.Checks()
	require.Len(t, checks, 2)
	assert.Equal(t, "Placebo treatment", checks[0].Name)
	assert.Equal(t, "Random common cause", checks[1].Name)
	assert.NotEmpty(t, report.Summary())
}

func TestAttFromScoresPairsNearest(t *testing.T) {
	// Two treated units whose scores sit exactly on two controls.
	ps := []float64{0.8, 0.2, 0.81, 0.19}
	treat := []float64{1, 1, 0, 0}
	outcome := []float64{10, 5, 7, 4}

	att, err := attFromScores(ps, treat, outcome)
	require.NoError(t, err)
	// Pairs: (10-7) and (5-4), mean 2.
	assert.InDelta(t, 2.0, att, 1e-12)
}

func TestAttFromScoresNoControls(t *testing.T) {
	_, err := attFromScores([]float64{0.5}, []float64{1}, []float64{1})
	assert.Error(t, err)
}
