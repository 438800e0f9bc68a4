package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"causalkit/domain/dataset"
	"causalkit/ports"
)

// TwoSLS fits outcome on [const, treatment, controls], instrumenting the
// treatment with the instrument.
//
// Stage one regresses the treatment on [const, instrument, controls] and
// replaces the treatment column with its fitted values. Stage two solves
// the outcome regression on the instrumented design. Standard errors use
// the textbook 2SLS covariance: residuals are computed against the
// ORIGINAL treatment column, the (X̂ᵀX̂)⁻¹ factor against the fitted one.
func (e *Engine) TwoSLS(ds *dataset.Dataset, outcome, treatment, instrument string, controls []string) (*ports.Coefficients, error) {
	X, err := designMatrix(ds, append([]string{treatment}, controls...))
	if err != nil {
		return nil, err
	}
	Z, err := designMatrix(ds, append([]string{instrument}, controls...))
	if err != nil {
		return nil, err
	}
	y, err := responseVector(ds, outcome)
	if err != nil {
		return nil, err
	}

	// Stage one: project the treatment onto the instrument design.
	tVec, err := responseVector(ds, treatment)
	if err != nil {
		return nil, err
	}
	var gamma mat.Dense
	if err := gamma.Solve(Z, tVec); err != nil {
		return nil, fmt.Errorf("first-stage design is singular: %w", err)
	}
	var tHat mat.Dense
	tHat.Mul(Z, &gamma)

	n, k := X.Dims()
	Xhat := mat.NewDense(n, k, nil)
	Xhat.Copy(X)
	for i := 0; i < n; i++ {
		Xhat.Set(i, 1, tHat.At(i, 0))
	}

	sol, err := leastSquares(X, Xhat, y)
	if err != nil {
		return nil, err
	}
	names := append([]string{InterceptName, treatment}, controls...)
	return keyed(sol, names, n), nil
}

// FirstStageF fits treatment ~ const + instrument + controls and returns
// the partial F statistic for the single restriction
// H0: instrument coefficient = 0 (F = t² with 1 and n−k degrees of
// freedom).
func (e *Engine) FirstStageF(ds *dataset.Dataset, treatment, instrument string, controls []string) (float64, error) {
	coefs, err := e.OLS(ds, treatment, append([]string{instrument}, controls...))
	if err != nil {
		return 0, err
	}
	s := coefs.MustStat(instrument)
	if s.StdErr == 0 {
		return math.Inf(1), nil
	}
	t := s.Coefficient / s.StdErr
	return t * t, nil
}

// FPValue converts a partial F statistic with 1 numerator degree of
// freedom into a p-value, for callers that want to report one.
func FPValue(f float64, denomDF int) float64 {
	if math.IsInf(f, 1) {
		return 0
	}
	dist := distuv.F{D1: 1, D2: float64(denomDF)}
	return 1 - dist.CDF(f)
}
