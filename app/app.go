// Package app wires the causal graph, the identification engine, and the
// external fitting collaborator into per-method estimation orchestrators.
//
// Every orchestrator follows the same lifecycle: construction validates
// the method's structural preconditions against the graph alone, Fit
// validates the dataset, runs identification, delegates numeric fitting
// through ports.Fitter, and returns an immutable result exposing Refute.
package app

import (
	"fmt"

	"causalkit/domain/core"
	"causalkit/domain/dataset"
	"causalkit/domain/graph"
	"causalkit/internal"
	"causalkit/internal/config"
	"causalkit/ports"
)

// Assumption is a precondition for causal interpretation of a method's
// output. Declared statically per method family; immutable.
type Assumption struct {
	Description string `json:"description"`
	Testable    bool   `json:"testable"`
}

// Estimate is the common payload of every fitted result. Fields are set
// once at fit time and never mutated.
type Estimate struct {
	ID               core.ResultID  `json:"id"`
	Effect           float64        `json:"effect"`
	UnadjustedEffect float64        `json:"unadjusted_effect"`
	StdErr           float64        `json:"std_err"`
	ConfInt          [2]float64     `json:"conf_int"`
	PValue           float64        `json:"p_value"`
	AdjustmentSet    []string       `json:"adjustment_set"`
	ComputedAt       core.Timestamp `json:"computed_at"`
}

// ConfoundingBias is the difference between the naive and the adjusted
// estimate: the bias removed by adjustment.
func (e Estimate) ConfoundingBias() float64 {
	return e.UnadjustedEffect - e.Effect
}

// Option configures an estimation orchestrator.
type Option func(*options)

type options struct {
	cfg config.Config
	log *internal.Logger
}

func buildOptions(opts []Option) options {
	o := options{cfg: config.Default(), log: internal.NewLoggerFromEnv()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithConfig overrides the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger overrides the default logger.
func WithLogger(l *internal.Logger) Option {
	return func(o *options) { o.log = l }
}

// validateNodes checks that each named variable is a node of the graph.
// labels and names run in parallel so error messages can say which role
// the variable plays.
func validateNodes(g *graph.DAG, labels, names []string) error {
	for i, name := range names {
		if !g.HasNode(name) {
			return core.NewValidationError(name, core.ErrUnknownNode,
				fmt.Sprintf("%s %q is not a node in the graph; known nodes: %v", labels[i], name, graph.Sorted(g.Nodes())))
		}
	}
	return nil
}

// validateDistinct checks pairwise distinctness of the named variables.
func validateDistinct(labels, names []string) error {
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			if names[i] == names[j] {
				return core.NewValidationError(names[i], core.ErrSameVariable,
					fmt.Sprintf("%s and %s must be different variables", labels[i], labels[j]))
			}
		}
	}
	return nil
}

// requireColumns checks that each named variable has a dataset column.
func requireColumns(ds *dataset.Dataset, labels, names []string) error {
	for i, name := range names {
		if !ds.Has(name) {
			return core.NewValidationError(name, core.ErrColumnNotFound,
				fmt.Sprintf("%s column %q not found in dataset", labels[i], name))
		}
	}
	return nil
}

// requireBinary checks that a column is 0/1 coded with both levels present.
func requireBinary(ds *dataset.Dataset, label, name string) error {
	if !ds.IsBinary(name) {
		return core.NewValidationError(name, core.ErrNotBinary,
			fmt.Sprintf("%s %q must be coded 0/1", label, name))
	}
	if !ds.HasBothLevels(name) {
		return core.NewValidationError(name, core.ErrMissingLevel,
			fmt.Sprintf("%s %q must contain both 0 and 1", label, name))
	}
	return nil
}

func mustFitter(f ports.Fitter) error {
	if f == nil {
		return fmt.Errorf("fitter must not be nil")
	}
	return nil
}
