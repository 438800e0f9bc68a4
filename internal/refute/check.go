// Package refute implements the perturb-and-compare protocol shared by
// every estimator's post-fit diagnostics: perturb the data in a specific
// deterministic way, re-run the same fitting routine, and compare the new
// estimate against the original within a noise-scale tolerance.
//
// A failed check is advisory evidence, never an error: it is reported as
// Passed == false, and estimation results are left untouched.
package refute

import (
	"fmt"
	"math"
	"math/rand"

	"causalkit/domain/dataset"
)

// Check is the outcome of one perturbation test. Read-only after creation.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Refit re-estimates the effect of interest on a perturbed dataset.
// Each estimator supplies its own, closing over the fitting collaborator
// and the variable names used in the original fit.
type Refit func(perturbed *dataset.Dataset) (float64, error)

// NoiseColumn draws n standard-normal values from an explicitly seeded
// source. No process-global RNG state is touched.
func NoiseColumn(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

// Permutation returns a seeded Fisher-Yates shuffle of vals, leaving the
// input untouched.
func Permutation(vals []float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, len(vals))
	copy(out, vals)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// RandomCommonCause appends a pure-noise covariate and re-estimates.
// Because the column is orthogonal to everything by construction, a
// stable estimate should not move by more than one original standard
// error. The refit receives the augmented dataset and the name of the
// noise column to include as an extra control.
func RandomCommonCause(ds *dataset.Dataset, seed int64, originalEffect, originalSE float64, refit func(augmented *dataset.Dataset, noiseCol string) (float64, error)) Check {
	const checkName = "Random common cause"

	col := ds.FreeColumnName("_rcc")
	augmented, err := ds.WithColumn(col, NoiseColumn(ds.Len(), seed))
	if err != nil {
		return Check{Name: checkName, Passed: false, Detail: fmt.Sprintf("could not augment dataset: %v", err)}
	}

	newEffect, err := refit(augmented, col)
	if err != nil {
		return Check{Name: checkName, Passed: false, Detail: fmt.Sprintf("re-estimation failed after adding random covariate: %v", err)}
	}

	shift := math.Abs(newEffect - originalEffect)
	passed := shift <= originalSE
	detail := fmt.Sprintf("estimate shifted by %.4f (<= 1 SE = %.4f)", shift, originalSE)
	if !passed {
		detail = fmt.Sprintf("estimate shifted by %.4f (> 1 SE = %.4f); adding a random common cause destabilised the estimate", shift, originalSE)
	}
	return Check{Name: checkName, Passed: passed, Detail: detail}
}

// Placebo permutes one column's labels at random and re-estimates. The
// permuted labels carry no real signal, so the placebo estimate should be
// near zero: it passes iff |placebo| <= one original standard error.
func Placebo(name string, ds *dataset.Dataset, column string, seed int64, originalSE float64, refit Refit) Check {
	vals, ok := ds.Column(column)
	if !ok {
		return Check{Name: name, Passed: false, Detail: fmt.Sprintf("column %q not present", column)}
	}
	permuted, err := ds.WithReplacedColumn(column, Permutation(vals, seed))
	if err != nil {
		return Check{Name: name, Passed: false, Detail: fmt.Sprintf("could not permute %q: %v", column, err)}
	}

	placebo, err := refit(permuted)
	if err != nil {
		return Check{Name: name, Passed: false, Detail: fmt.Sprintf("re-estimation failed on permuted %q: %v", column, err)}
	}

	passed := math.Abs(placebo) <= originalSE
	detail := fmt.Sprintf("placebo estimate = %.4f (<= 1 SE = %.4f); permuting %s labels yields a near-zero effect, as expected", placebo, originalSE, column)
	if !passed {
		detail = fmt.Sprintf("placebo estimate = %.4f (> 1 SE = %.4f); randomly permuted %s labels produced a large effect, so the original result may be spurious", placebo, originalSE, column)
	}
	return Check{Name: name, Passed: passed, Detail: detail}
}

// InstrumentStrength compares a first-stage partial F statistic against a
// fixed threshold (conventionally 10). Instrument strength is a property
// of the design, not of estimate stability, so the one-SE rule does not
// apply here.
func InstrumentStrength(f, threshold float64, err error) Check {
	const checkName = "First-stage F-statistic"
	if err != nil {
		return Check{Name: checkName, Passed: false, Detail: fmt.Sprintf("first-stage regression failed: %v", err)}
	}
	passed := f >= threshold
	detail := fmt.Sprintf("F = %.2f (threshold: F >= %.0f)", f, threshold)
	if !passed {
		detail = fmt.Sprintf("F = %.2f (threshold: F >= %.0f); weak instrument detected, the instrument explains little variation in treatment and IV estimates may be severely biased", f, threshold)
	}
	return Check{Name: checkName, Passed: passed, Detail: detail}
}
