package identify

import (
	"fmt"

	"causalkit/domain/core"
	"causalkit/domain/graph"
)

// ValidateInstrument checks the two structural conditions an instrument
// must satisfy, using the graph alone:
//
//  1. Relevance: a directed path from instrument to treatment exists.
//  2. Exclusion restriction: with traversal through the treatment node
//     forbidden, the outcome is unreachable from the instrument.
//
// Both checks run at orchestrator construction, before any data is seen:
// an invalid instrument is rejected without touching the dataset.
func ValidateInstrument(g *graph.DAG, treatment, outcome, instrument string) error {
	if !g.Descendants(instrument)[treatment] {
		return core.NewValidationError(instrument, core.ErrInstrumentIrrelevant,
			fmt.Sprintf("no directed path from %q to treatment %q; assert a causal path to establish relevance", instrument, treatment))
	}

	if g.DescendantsExcluding(instrument, treatment)[outcome] {
		return core.NewValidationError(instrument, core.ErrExclusionViolated,
			fmt.Sprintf("%q can reach outcome %q without passing through treatment %q; the instrument must affect the outcome only through the treatment", instrument, outcome, treatment))
	}

	return nil
}
