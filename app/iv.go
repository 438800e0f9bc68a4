package app

import (
	"fmt"
	"strings"

	"causalkit/domain/core"
	"causalkit/domain/dataset"
	"causalkit/domain/graph"
	"causalkit/domain/identify"
	"causalkit/internal/refute"
	"causalkit/ports"
)

// IV estimates a causal effect by two-stage least squares, using an
// instrument to handle confounding that cannot be adjusted away. The
// instrument's structural validity (relevance and exclusion) is checked
// against the graph at construction, before any data is seen.
type IV struct {
	dag        *graph.DAG
	treatment  string
	outcome    string
	instrument string
	fitter     ports.Fitter
	opts       options
}

// NewIV validates the three variables against the graph and verifies the
// instrument satisfies relevance and the exclusion restriction.
func NewIV(dag *graph.DAG, treatment, outcome, instrument string, fitter ports.Fitter, opts ...Option) (*IV, error) {
	if err := mustFitter(fitter); err != nil {
		return nil, err
	}
	labels := []string{"treatment", "outcome", "instrument"}
	names := []string{treatment, outcome, instrument}
	if err := validateDistinct(labels, names); err != nil {
		return nil, err
	}
	if err := validateNodes(dag, labels, names); err != nil {
		return nil, err
	}
	if err := identify.ValidateInstrument(dag, treatment, outcome, instrument); err != nil {
		return nil, err
	}
	return &IV{
		dag:        dag,
		treatment:  treatment,
		outcome:    outcome,
		instrument: instrument,
		fitter:     fitter,
		opts:       buildOptions(opts),
	}, nil
}

// IVResult is the immutable outcome of a two-stage least squares fit.
type IVResult struct {
	Estimate
	Treatment  string
	Outcome    string
	Instrument string
	// FirstStageF is the partial F statistic for the instrument in the
	// first-stage regression of treatment on instrument and controls.
	FirstStageF float64

	est *IV
}

// Fit runs two-stage least squares. Unmeasured confounders are tolerated
// here: the instrument exists precisely to handle them, so missing
// columns in the adjustment set are logged and dropped rather than
// treated as fatal. Observed confounders are still included as controls
// for precision.
func (e *IV) Fit(ds *dataset.Dataset) (*IVResult, error) {
	labels := []string{"treatment", "outcome", "instrument"}
	names := []string{e.treatment, e.outcome, e.instrument}
	if err := requireColumns(ds, labels, names); err != nil {
		return nil, err
	}

	ident := identify.Identify(e.dag, e.treatment, e.outcome, ds.Has, e.instrument)
	if len(ident.Missing) > 0 {
		e.opts.log.Warn("iv: confounders %v are unmeasured; relying on the instrument to handle them", ident.Missing)
	}

	fitted, err := e.fitter.TwoSLS(ds, e.outcome, e.treatment, e.instrument, ident.Adjustment)
	if err != nil {
		return nil, core.NewFitError("two-stage least squares", err)
	}
	// Naive companion is the treatment-only regression: it carries the
	// full confounding bias the 2SLS estimate is compared against.
	naive, err := e.fitter.OLS(ds, e.outcome, []string{e.treatment})
	if err != nil {
		return nil, core.NewFitError("naive regression", err)
	}
	f, err := e.fitter.FirstStageF(ds, e.treatment, e.instrument, ident.Adjustment)
	if err != nil {
		return nil, core.NewFitError("first-stage regression", err)
	}

	stat := fitted.MustStat(e.treatment)
	return &IVResult{
		Estimate: Estimate{
			ID:               core.NewResultID(),
			Effect:           stat.Coefficient,
			UnadjustedEffect: naive.MustStat(e.treatment).Coefficient,
			StdErr:           stat.StdErr,
			ConfInt:          stat.ConfInt,
			PValue:           stat.PValue,
			AdjustmentSet:    ident.Adjustment,
			ComputedAt:       core.Now(),
		},
		Treatment:   e.treatment,
		Outcome:     e.outcome,
		Instrument:  e.instrument,
		FirstStageF: f,
		est:         e,
	}, nil
}

// Refute probes the estimate with the instrument-strength check and the
// random-common-cause check. Weak instruments (F below the configured
// threshold, conventionally 10) fail the first check even when the point
// estimate itself looks plausible.
func (r *IVResult) Refute(ds *dataset.Dataset) *refute.Report {
	e := r.est
	cfg := e.opts.cfg.Refute

	f, ferr := e.fitter.FirstStageF(ds, e.treatment, e.instrument, r.AdjustmentSet)
	strength := refute.InstrumentStrength(f, cfg.WeakInstrumentF, ferr)

	rcc := refute.RandomCommonCause(ds, cfg.NoiseSeed, r.Effect, r.StdErr,
		func(augmented *dataset.Dataset, noiseCol string) (float64, error) {
			controls := append(append([]string{}, r.AdjustmentSet...), noiseCol)
			coefs, err := e.fitter.TwoSLS(augmented, e.outcome, e.treatment, e.instrument, controls)
			if err != nil {
				return 0, err
			}
			return coefs.MustStat(e.treatment).Coefficient, nil
		})

	return refute.NewReport(
		fmt.Sprintf("IV Refutation Report: %s -> %s (instrument: %s)", r.Treatment, r.Outcome, r.Instrument),
		[]refute.Check{strength, rcc},
	)
}

// Summary renders a plain-text summary of the estimate.
func (r *IVResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nIV Causal Effect: %s -> %s\n", r.Treatment, r.Outcome)
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "  Instrument           : %s\n", r.Instrument)
	fmt.Fprintf(&b, "  2SLS estimate        : %10.4f\n", r.Effect)
	fmt.Fprintf(&b, "  Naive OLS estimate   : %10.4f\n", r.UnadjustedEffect)
	fmt.Fprintf(&b, "  Std. error           : %10.4f\n", r.StdErr)
	fmt.Fprintf(&b, "  95%% CI               : [%.4f, %.4f]\n", r.ConfInt[0], r.ConfInt[1])
	fmt.Fprintf(&b, "  p-value              : %10.4f\n", r.PValue)
	fmt.Fprintf(&b, "  First-stage F        : %10.2f\n", r.FirstStageF)
	if len(r.AdjustmentSet) > 0 {
		fmt.Fprintf(&b, "  Controls             : %s\n", strings.Join(r.AdjustmentSet, ", "))
	}
	b.WriteString("\n  The 2SLS estimate is consistent only if the instrument affects\n")
	b.WriteString("  the outcome exclusively through the treatment.\n")
	return b.String()
}
