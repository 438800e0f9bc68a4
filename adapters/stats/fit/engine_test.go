package fit

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causalkit/domain/dataset"
	"causalkit/internal/testkit"
)

func linearDataset(t *testing.T, n int, seed int64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = rng.NormFloat64()
		x2[i] = rng.NormFloat64()
		y[i] = 1.5 + 2.0*x1[i] - 0.5*x2[i] + 0.3*rng.NormFloat64()
	}
	ds, err := dataset.FromColumns([]string{"x1", "x2", "y"}, map[string][]float64{
		"x1": x1, "x2": x2, "y": y,
	})
	require.NoError(t, err)
	return ds
}

func TestOLSRecoversCoefficients(t *testing.T) {
	engine := NewEngine()
	ds := linearDataset(t, 2000, 7)

	coefs, err := engine.OLS(ds, "y", []string{"x1", "x2"})
	require.NoError(t, err)
	assert.Equal(t, 2000, coefs.Nobs())

	assert.InDelta(t, 1.5, coefs.MustStat(InterceptName).Coefficient, 0.05)
	assert.InDelta(t, 2.0, coefs.MustStat("x1").Coefficient, 0.05)
	assert.InDelta(t, -0.5, coefs.MustStat("x2").Coefficient, 0.05)
}

func TestOLSInference(t *testing.T) {
	engine := NewEngine()
	ds := linearDataset(t, 2000, 11)

	coefs, err := engine.OLS(ds, "y", []string{"x1", "x2"})
	require.NoError(t, err)

	x1 := coefs.MustStat("x1")
	assert.Greater(t, x1.StdErr, 0.0)
	assert.Less(t, x1.ConfInt[0], x1.Coefficient)
	assert.Greater(t, x1.ConfInt[1], x1.Coefficient)
	assert.Less(t, x1.PValue, 0.001, "a strong true effect must be significant")
}

func TestOLSMissingColumn(t *testing.T) {
	engine := NewEngine()
	ds := linearDataset(t, 50, 1)

	_, err := engine.OLS(ds, "y", []string{"nope"})
	assert.Error(t, err)
}

func TestOLSSingularDesign(t *testing.T) {
	// A column duplicated under two names makes the design rank deficient.
	engine := NewEngine()
	base := linearDataset(t, 100, 3)
	ds, err := base.WithColumn("x1_copy", base.MustColumn("x1"))
	require.NoError(t, err)

	_, err = engine.OLS(ds, "y", []string{"x1", "x1_copy"})
	assert.Error(t, err)
}

func TestLogitProbabilitiesMonotone(t *testing.T) {
	// Treatment probability rises with the score; fitted propensities must
	// preserve that ordering on average.
	engine := NewEngine()
	rng := rand.New(rand.NewSource(5))
	n := 1500
	score := make([]float64, n)
	taken := make([]float64, n)
	for i := 0; i < n; i++ {
		score[i] = rng.NormFloat64()
		p := 1 / (1 + math.Exp(-1.5*score[i]))
		if rng.Float64() < p {
			taken[i] = 1
		}
	}
	ds, err := dataset.FromColumns([]string{"score", "taken"}, map[string][]float64{
		"score": score, "taken": taken,
	})
	require.NoError(t, err)

	ps, err := engine.Logit(ds, "taken", []string{"score"})
	require.NoError(t, err)
	require.Len(t, ps, n)

	var lowSum, highSum float64
	var lowN, highN int
	for i := range ps {
		assert.GreaterOrEqual(t, ps[i], 0.0)
		assert.LessOrEqual(t, ps[i], 1.0)
		if score[i] < 0 {
			lowSum += ps[i]
			lowN++
		} else {
			highSum += ps[i]
			highN++
		}
	}
	assert.Greater(t, highSum/float64(highN), lowSum/float64(lowN))
}

func TestTwoSLSRecoversTrueEffect(t *testing.T) {
	engine := NewEngine()
	ds := testkit.InstrumentDataset(4000, 13)

	naive, err := engine.OLS(ds, "income", []string{"education"})
	require.NoError(t, err)
	iv, err := engine.TwoSLS(ds, "income", "education", "proximity", nil)
	require.NoError(t, err)

	trueEffect := testkit.TrueEducationEffect
	naiveBias := math.Abs(naive.MustStat("education").Coefficient - trueEffect)
	ivBias := math.Abs(iv.MustStat("education").Coefficient - trueEffect)

	assert.Greater(t, naiveBias, 0.5, "omitted ability must bias the naive estimate")
	assert.InDelta(t, trueEffect, iv.MustStat("education").Coefficient, 0.25)
	assert.Less(t, ivBias, naiveBias)
}

func TestFirstStageF(t *testing.T) {
	engine := NewEngine()
	ds := testkit.InstrumentDataset(4000, 17)

	f, err := engine.FirstStageF(ds, "education", "proximity", nil)
	require.NoError(t, err)
	assert.Greater(t, f, 10.0, "a strong instrument must clear the conventional threshold")
	assert.Less(t, FPValue(f, ds.Len()-2), 0.001)
}

func TestFirstStageFWeakInstrument(t *testing.T) {
	// An instrument that is pure noise should produce a small F.
	engine := NewEngine()
	rng := rand.New(rand.NewSource(23))
	n := 800
	noise := make([]float64, n)
	treatment := make([]float64, n)
	outcome := make([]float64, n)
	for i := 0; i < n; i++ {
		noise[i] = rng.NormFloat64()
		treatment[i] = rng.NormFloat64()
		outcome[i] = treatment[i] + rng.NormFloat64()
	}
	ds, err := dataset.FromColumns([]string{"noise", "treatment", "outcome"}, map[string][]float64{
		"noise": noise, "treatment": treatment, "outcome": outcome,
	})
	require.NoError(t, err)

	f, err := engine.FirstStageF(ds, "treatment", "noise", nil)
	require.NoError(t, err)
	assert.Less(t, f, 10.0)

	p := FPValue(f, n-2)
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}
