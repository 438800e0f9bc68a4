// Package fit implements the ports.Fitter contract on top of gonum:
// least squares via QR, logistic regression via iteratively reweighted
// least squares, and two-stage least squares with textbook covariance.
package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"causalkit/domain/core"
	"causalkit/domain/dataset"
	"causalkit/ports"
)

// InterceptName keys the intercept column in fitted results.
const InterceptName = "const"

// Engine is the gonum-backed fitting collaborator.
type Engine struct{}

// NewEngine creates a fitting engine.
func NewEngine() *Engine {
	return &Engine{}
}

var _ ports.Fitter = (*Engine)(nil)

// designMatrix builds [1, regressors...] as an n×(1+k) dense matrix.
func designMatrix(ds *dataset.Dataset, regressors []string) (*mat.Dense, error) {
	n := ds.Len()
	k := len(regressors) + 1
	X := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
	}
	for j, name := range regressors {
		col, ok := ds.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: regressor %q", core.ErrColumnNotFound, name)
		}
		for i := 0; i < n; i++ {
			X.Set(i, j+1, col[i])
		}
	}
	return X, nil
}

func responseVector(ds *dataset.Dataset, name string) (*mat.Dense, error) {
	col, ok := ds.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: response %q", core.ErrColumnNotFound, name)
	}
	y := mat.NewDense(len(col), 1, nil)
	for i, v := range col {
		y.Set(i, 0, v)
	}
	return y, nil
}

// lsSolution holds the raw output of one least-squares solve.
type lsSolution struct {
	coefs   []float64 // aligned with design columns
	stderrs []float64
	df      int
}

// leastSquares solves y = Xb and derives classical standard errors:
// residual variance s² = e'e/(n−k), covariance s²·(covBase'covBase)⁻¹.
// covBase is normally X itself; 2SLS passes the fitted-instrument design
// while computing residuals against the original regressors.
func leastSquares(X, covBase, y *mat.Dense) (*lsSolution, error) {
	n, k := X.Dims()
	if n <= k {
		return nil, fmt.Errorf("%w: %d observations for %d parameters", core.ErrInsufficientData, n, k)
	}

	var b mat.Dense
	if err := b.Solve(covBase, y); err != nil {
		return nil, fmt.Errorf("design matrix is singular or ill-conditioned: %w", err)
	}

	// Residuals against the original regressors.
	var fitted mat.Dense
	fitted.Mul(X, &b)
	rss := 0.0
	for i := 0; i < n; i++ {
		e := y.At(i, 0) - fitted.At(i, 0)
		rss += e * e
	}
	df := n - k
	sigma2 := rss / float64(df)

	var xtx, xtxInv mat.Dense
	xtx.Mul(covBase.T(), covBase)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("normal equations are singular: %w", err)
	}

	coefs := make([]float64, k)
	stderrs := make([]float64, k)
	for j := 0; j < k; j++ {
		coefs[j] = b.At(j, 0)
		v := sigma2 * xtxInv.At(j, j)
		if v < 0 {
			v = 0
		}
		stderrs[j] = math.Sqrt(v)
	}
	return &lsSolution{coefs: coefs, stderrs: stderrs, df: df}, nil
}

// keyed converts a least-squares solution into name-keyed statistics
// with Student-t p-values and 95% confidence intervals.
func keyed(sol *lsSolution, names []string, nobs int) *ports.Coefficients {
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(sol.df)}
	tq := tDist.Quantile(0.975)

	stats := make(map[string]ports.CoefStat, len(names))
	for j, name := range names {
		coef := sol.coefs[j]
		se := sol.stderrs[j]
		var p float64 = 1
		if se > 0 {
			t := coef / se
			p = 2 * (1 - tDist.CDF(math.Abs(t)))
		}
		stats[name] = ports.CoefStat{
			Coefficient: coef,
			StdErr:      se,
			ConfInt:     [2]float64{coef - tq*se, coef + tq*se},
			PValue:      p,
		}
	}
	return ports.NewCoefficients(stats, nobs)
}

// OLS fits outcome ~ const + regressors.
func (e *Engine) OLS(ds *dataset.Dataset, outcome string, regressors []string) (*ports.Coefficients, error) {
	X, err := designMatrix(ds, regressors)
	if err != nil {
		return nil, err
	}
	y, err := responseVector(ds, outcome)
	if err != nil {
		return nil, err
	}
	sol, err := leastSquares(X, X, y)
	if err != nil {
		return nil, err
	}
	return keyed(sol, append([]string{InterceptName}, regressors...), ds.Len()), nil
}
