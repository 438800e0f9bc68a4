// Package identify decides, from the causal graph alone, which variables
// must be statistically controlled for and whether a candidate instrument
// is structurally valid. It runs before any numeric fitting.
package identify

import (
	"fmt"
	"sort"
	"strings"

	"causalkit/domain/graph"
)

// IdentificationError reports confounders declared in the graph that are
// absent from the dataset and therefore cannot be adjusted for.
//
// This only covers confounders the user explicitly modelled. Confounders
// not represented in the graph at all cannot be detected.
type IdentificationError struct {
	Treatment string
	Outcome   string
	Missing   []string
}

func (e *IdentificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "declared confounders not found in dataset: %v\n\n", e.Missing)
	fmt.Fprintf(&b, "The causal graph declares these variables as confounders of %q and %q,\n", e.Treatment, e.Outcome)
	b.WriteString("but they are absent from the dataset and cannot be controlled for.\n")
	b.WriteString("There may also be confounders not modelled in the graph at all;\n")
	b.WriteString("those cannot be detected.\n\n")
	b.WriteString("Consider:\n")
	fmt.Fprintf(&b, "  - collecting data on %v and adding it to the dataset\n", e.Missing)
	fmt.Fprintf(&b, "  - IV estimation if a valid instrument for %q exists\n", e.Treatment)
	b.WriteString("  - difference-in-differences if a natural experiment is available")
	return b.String()
}

// Identification is the result of applying the backdoor criterion for a
// (graph, treatment, outcome) triple against a dataset's columns.
type Identification struct {
	// Adjustment holds the observed confounders to use as controls, sorted.
	Adjustment []string
	// Missing holds confounders declared in the graph but absent from the
	// dataset, sorted.
	Missing []string
}

// Identify computes the backdoor adjustment set:
//
//	confounders = (ancestors(treatment) ∩ ancestors(outcome)) \ descendants(treatment)
//
// Common causes of treatment and outcome qualify; descendants of
// treatment (mediators, post-treatment variables) never do: controlling
// for them would block part of the causal path and bias the estimate
// toward zero.
//
// observed reports whether a variable has a column in the dataset; it
// splits the confounders into Adjustment (present) and Missing (absent).
// Nodes listed in excluded are removed outright; an instrument is
// definitionally excluded from the control set even when it would
// otherwise qualify.
//
// Callers must have verified that treatment and outcome are distinct
// nodes of g before calling.
func Identify(g *graph.DAG, treatment, outcome string, observed func(string) bool, excluded ...string) Identification {
	treatmentAncestors := g.Ancestors(treatment)
	outcomeAncestors := g.Ancestors(outcome)
	treatmentDescendants := g.Descendants(treatment)

	skip := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		skip[e] = true
	}

	var adjustment, missing []string
	for node := range treatmentAncestors {
		if !outcomeAncestors[node] || treatmentDescendants[node] || skip[node] {
			continue
		}
		if observed(node) {
			adjustment = append(adjustment, node)
		} else {
			missing = append(missing, node)
		}
	}
	sort.Strings(adjustment)
	sort.Strings(missing)
	return Identification{Adjustment: adjustment, Missing: missing}
}
