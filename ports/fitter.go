// Package ports declares the contracts consumed by the estimation
// orchestrators. The numeric fitting routines are external collaborators:
// orchestrators depend on these interfaces, never on an implementation.
package ports

import (
	"fmt"

	"causalkit/domain/dataset"
)

// CoefStat captures the four statistics reported for one fitted
// coefficient under standard regression semantics.
type CoefStat struct {
	Coefficient float64
	StdErr      float64
	// ConfInt is the 95% two-sided confidence interval [lo, hi].
	ConfInt [2]float64
	PValue  float64
}

// Coefficients holds fitted statistics keyed by regressor name.
// The intercept is keyed as "const".
type Coefficients struct {
	stats map[string]CoefStat
	nobs  int
}

// NewCoefficients packages keyed statistics produced by a fitter.
func NewCoefficients(stats map[string]CoefStat, nobs int) *Coefficients {
	return &Coefficients{stats: stats, nobs: nobs}
}

// Stat returns the statistics for a named regressor.
func (c *Coefficients) Stat(name string) (CoefStat, bool) {
	s, ok := c.stats[name]
	return s, ok
}

// MustStat returns the statistics for a named regressor and panics if the
// regressor was not part of the fitted model. Orchestrators only query
// names they supplied, so a miss is a programming error.
func (c *Coefficients) MustStat(name string) CoefStat {
	s, ok := c.stats[name]
	if !ok {
		panic(fmt.Sprintf("fit result has no coefficient %q", name))
	}
	return s
}

// Nobs returns the number of observations used in the fit.
func (c *Coefficients) Nobs() int { return c.nobs }

// Fitter is the statistics library boundary. Implementations provide
// standard linear/logistic regression and 2SLS semantics; their
// internals are out of scope for the orchestrators.
type Fitter interface {
	// OLS fits outcome ~ const + regressors by ordinary least squares.
	OLS(ds *dataset.Dataset, outcome string, regressors []string) (*Coefficients, error)

	// Logit fits a logistic regression of target on const + regressors
	// and returns the predicted probabilities (propensity scores).
	Logit(ds *dataset.Dataset, target string, regressors []string) ([]float64, error)

	// TwoSLS fits outcome on [const, treatment, controls] instrumenting
	// the treatment with the instrument, by two-stage least squares.
	TwoSLS(ds *dataset.Dataset, outcome, treatment, instrument string, controls []string) (*Coefficients, error)

	// FirstStageF fits treatment ~ const + instrument + controls and
	// returns the partial F statistic for H0: instrument coefficient = 0.
	FirstStageF(ds *dataset.Dataset, treatment, instrument string, controls []string) (float64, error)
}
