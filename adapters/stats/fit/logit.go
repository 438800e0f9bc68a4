package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"causalkit/domain/core"
	"causalkit/domain/dataset"
)

const (
	irlsMaxIter = 50
	irlsTol     = 1e-8
	// weightFloor keeps the working weights away from zero when fitted
	// probabilities saturate, which otherwise makes XᵀWX singular.
	weightFloor = 1e-10
)

// Logit fits target ~ const + regressors by iteratively reweighted least
// squares and returns the fitted probabilities.
func (e *Engine) Logit(ds *dataset.Dataset, target string, regressors []string) ([]float64, error) {
	X, err := designMatrix(ds, regressors)
	if err != nil {
		return nil, err
	}
	yCol, ok := ds.Column(target)
	if !ok {
		return nil, fmt.Errorf("%w: target %q", core.ErrColumnNotFound, target)
	}

	n, k := X.Dims()
	if n <= k {
		return nil, fmt.Errorf("%w: %d observations for %d parameters", core.ErrInsufficientData, n, k)
	}

	beta := mat.NewDense(k, 1, nil)
	eta := make([]float64, n)
	mu := make([]float64, n)
	w := make([]float64, n)
	z := mat.NewDense(n, 1, nil)

	for iter := 0; iter < irlsMaxIter; iter++ {
		for i := 0; i < n; i++ {
			s := 0.0
			for j := 0; j < k; j++ {
				s += X.At(i, j) * beta.At(j, 0)
			}
			eta[i] = s
			mu[i] = 1 / (1 + math.Exp(-s))
			wi := mu[i] * (1 - mu[i])
			if wi < weightFloor {
				wi = weightFloor
			}
			w[i] = wi
			z.Set(i, 0, eta[i]+(yCol[i]-mu[i])/wi)
		}

		W := mat.NewDiagDense(n, w)
		var xtwx, xtwz, next mat.Dense
		xtwx.Product(X.T(), W, X)
		xtwz.Product(X.T(), W, z)
		if err := next.Solve(&xtwx, &xtwz); err != nil {
			return nil, fmt.Errorf("logistic regression did not converge: %w", err)
		}

		delta := 0.0
		for j := 0; j < k; j++ {
			delta = math.Max(delta, math.Abs(next.At(j, 0)-beta.At(j, 0)))
		}
		beta.Copy(&next)
		if delta < irlsTol {
			break
		}
	}

	probs := make([]float64, n)
	for i := 0; i < n; i++ {
		s := 0.0
		for j := 0; j < k; j++ {
			s += X.At(i, j) * beta.At(j, 0)
		}
		probs[i] = 1 / (1 + math.Exp(-s))
	}
	return probs, nil
}
