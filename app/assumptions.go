package app

// Assumptions returns the preconditions under which each method's
// estimate carries a causal interpretation. Testable assumptions have a
// corresponding refutation check; the rest must be defended on
// substantive grounds.

// Assumptions for OLS lists the conditions for observational regression.
func (o *OLS) Assumptions() []Assumption {
	return []Assumption{
		{Description: "The causal graph declares every confounder of treatment and outcome", Testable: false},
		{Description: "All declared confounders are measured in the dataset", Testable: true},
		{Description: "The outcome is linear in treatment and confounders", Testable: false},
		{Description: "The estimate is stable under an added random common cause", Testable: true},
	}
}

// Assumptions for IV lists the instrumental-variable conditions.
func (e *IV) Assumptions() []Assumption {
	return []Assumption{
		{Description: "Relevance: the instrument causes the treatment", Testable: true},
		{Description: "Exclusion: the instrument affects the outcome only through the treatment", Testable: false},
		{Description: "The instrument shares no unmeasured cause with the outcome", Testable: false},
		{Description: "Monotonicity: the instrument moves treatment in the same direction for every unit", Testable: false},
		{Description: "The first-stage relationship is strong (F >= threshold)", Testable: true},
	}
}

// Assumptions for RCT lists the randomized-trial conditions.
func (e *RCT) Assumptions() []Assumption {
	return []Assumption{
		{Description: "Treatment was assigned at random (no causes of assignment)", Testable: false},
		{Description: "Assignment and outcome measurement did not interfere across units", Testable: false},
		{Description: "The estimate is stable under an added random common cause", Testable: true},
	}
}

// Assumptions for DiD lists the difference-in-differences conditions.
func (e *DiD) Assumptions() []Assumption {
	return []Assumption{
		{Description: "Parallel trends: absent treatment, both groups would evolve identically", Testable: false},
		{Description: "No other intervention coincides with the treatment period", Testable: false},
		{Description: "Group composition is stable across periods", Testable: false},
		{Description: "A placebo group or placebo period shows no effect", Testable: true},
	}
}

// Assumptions for Matching lists the propensity-score conditions.
func (e *Matching) Assumptions() []Assumption {
	return []Assumption{
		{Description: "The propensity model includes every confounder of treatment and outcome", Testable: false},
		{Description: "Overlap: every treated unit has a comparable control", Testable: true},
		{Description: "A placebo treatment shows no effect", Testable: true},
	}
}
