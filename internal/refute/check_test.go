package refute

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causalkit/domain/dataset"
)

func twoColumn(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		y[i] = float64(2 * i)
	}
	ds, err := dataset.FromColumns([]string{"x", "y"}, map[string][]float64{"x": x, "y": y})
	require.NoError(t, err)
	return ds
}

func TestNoiseColumnDeterministic(t *testing.T) {
	a := NoiseColumn(100, 54321)
	b := NoiseColumn(100, 54321)
	assert.Equal(t, a, b)

	c := NoiseColumn(100, 99999)
	assert.NotEqual(t, a, c)
}

func TestPermutationPreservesValues(t *testing.T) {
	vals := []float64{5, 3, 8, 1, 9, 2}
	perm := Permutation(vals, 7)

	assert.Equal(t, []float64{5, 3, 8, 1, 9, 2}, vals, "input must be untouched")

	sortedOrig := append([]float64{}, vals...)
	sortedPerm := append([]float64{}, perm...)
	sort.Float64s(sortedOrig)
	sort.Float64s(sortedPerm)
	assert.Equal(t, sortedOrig, sortedPerm)
}

func TestRandomCommonCausePasses(t *testing.T) {
	ds := twoColumn(t, 50)

	check := RandomCommonCause(ds, 54321, 1.0, 0.1,
		func(augmented *dataset.Dataset, noiseCol string) (float64, error) {
			require.True(t, augmented.Has(noiseCol))
			assert.Equal(t, 50, augmented.Len())
			return 1.05, nil // within one SE
		})

	assert.True(t, check.Passed)
	assert.Equal(t, "Random common cause", check.Name)
}

func TestRandomCommonCauseFailsOnShift(t *testing.T) {
	ds := twoColumn(t, 50)

	check := RandomCommonCause(ds, 54321, 1.0, 0.1,
		func(augmented *dataset.Dataset, noiseCol string) (float64, error) {
			return 1.5, nil // shifted by 5 SEs
		})

	assert.False(t, check.Passed)
	assert.Contains(t, check.Detail, "destabilised")
}

func TestRandomCommonCauseFailsOnRefitError(t *testing.T) {
	ds := twoColumn(t, 50)

	check := RandomCommonCause(ds, 54321, 1.0, 0.1,
		func(augmented *dataset.Dataset, noiseCol string) (float64, error) {
			return 0, errors.New("singular design")
		})

	assert.False(t, check.Passed)
	assert.Contains(t, check.Detail, "re-estimation failed")
}

func TestPlaceboPassesNearZero(t *testing.T) {
	ds := twoColumn(t, 50)

	check := Placebo("Placebo treatment", ds, "x", 99999, 0.2,
		func(perturbed *dataset.Dataset) (float64, error) {
			return 0.1, nil
		})

	assert.True(t, check.Passed)
}

func TestPlaceboFailsOnLargeEffect(t *testing.T) {
	ds := twoColumn(t, 50)

	check := Placebo("Placebo treatment", ds, "x", 99999, 0.2,
		func(perturbed *dataset.Dataset) (float64, error) {
			return 1.0, nil
		})

	assert.False(t, check.Passed)
	assert.Contains(t, check.Detail, "spurious")
}

func TestPlaceboMissingColumn(t *testing.T) {
	ds := twoColumn(t, 10)

	check := Placebo("Placebo treatment", ds, "nope", 1, 0.2,
		func(perturbed *dataset.Dataset) (float64, error) { return 0, nil })

	assert.False(t, check.Passed)
}

func TestInstrumentStrength(t *testing.T) {
	strong := InstrumentStrength(42.0, 10.0, nil)
	assert.True(t, strong.Passed)

	weak := InstrumentStrength(3.2, 10.0, nil)
	assert.False(t, weak.Passed)
	assert.Contains(t, weak.Detail, "weak instrument")

	failed := InstrumentStrength(0, 10.0, errors.New("singular"))
	assert.False(t, failed.Passed)
}

func TestReportAggregation(t *testing.T) {
	checks := []Check{
		{Name: "a", Passed: true, Detail: "fine"},
		{Name: "b", Passed: false, Detail: "off"},
	}
	report := NewReport("Test Report", checks)

	assert.False(t, report.Passed())
	require.Len(t, report.FailedChecks(), 1)
	assert.Equal(t, "b", report.FailedChecks()[0].Name)
	assert.NotEmpty(t, report.ID())
	assert.False(t, report.ComputedAt().IsZero())

	summary := report.Summary()
	assert.Contains(t, summary, "[PASS]")
	assert.Contains(t, summary, "[FAIL]")

	// Mutating the input slice after construction must not leak in.
	checks[0].Passed = false
	assert.True(t, report.Checks()[0].Passed)
}

func TestReportAllPassed(t *testing.T) {
	report := NewReport("ok", []Check{{Name: "a", Passed: true}})
	assert.True(t, report.Passed())
	assert.Empty(t, report.FailedChecks())
	assert.Contains(t, report.Summary(), "All checks passed")
}
