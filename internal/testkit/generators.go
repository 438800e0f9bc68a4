// Package testkit generates deterministic synthetic datasets with known
// causal structure. Every generator takes an explicit seed so tests can
// assert against the declared true effects.
package testkit

import (
	"math"
	"math/rand"

	"causalkit/domain/dataset"
	"causalkit/domain/graph"
)

// True effects baked into the generators. Tests assert recovery against
// these values within sampling tolerance.
const (
	TrueEducationEffect = 1.5
	TrueRCTEffect       = 2.0
	TrueDiDEffect       = 1.5
	TrueATT             = 1.8
)

// EducationGraph declares the classic confounded triangle: ability
// causes both education and income, education causes income.
func EducationGraph() *graph.DAG {
	g := graph.New()
	g.Assume("ability").Causes("education", "income")
	g.Assume("education").Causes("income")
	return g
}

// InstrumentGraph extends the education graph with distance-to-college
// as an instrument for education.
func InstrumentGraph() *graph.DAG {
	g := EducationGraph()
	g.Assume("proximity").Causes("education")
	return g
}

// ConfoundedDataset draws the education scenario with ability observed.
// The unadjusted education coefficient is biased upward because ability
// raises both education and income.
func ConfoundedDataset(n int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ability := make([]float64, n)
	education := make([]float64, n)
	income := make([]float64, n)
	for i := 0; i < n; i++ {
		ability[i] = rng.NormFloat64()
		education[i] = 2 + 0.8*ability[i] + 0.5*rng.NormFloat64()
		income[i] = 10 + TrueEducationEffect*education[i] + 2*ability[i] + rng.NormFloat64()
	}
	return mustDataset([]string{"ability", "education", "income"}, map[string][]float64{
		"ability":   ability,
		"education": education,
		"income":    income,
	})
}

// InstrumentDataset draws the education scenario where ability is NOT
// included in the returned columns. Proximity shifts education without
// touching income directly, so 2SLS recovers the true effect while
// naive regression stays biased.
func InstrumentDataset(n int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	proximity := make([]float64, n)
	education := make([]float64, n)
	income := make([]float64, n)
	for i := 0; i < n; i++ {
		ability := rng.NormFloat64()
		proximity[i] = float64(rng.Intn(2))
		education[i] = 1 + 1.2*proximity[i] + 0.8*ability + 0.5*rng.NormFloat64()
		income[i] = 5 + TrueEducationEffect*education[i] + 2*ability + rng.NormFloat64()
	}
	return mustDataset([]string{"proximity", "education", "income"}, map[string][]float64{
		"proximity": proximity,
		"education": education,
		"income":    income,
	})
}

// InstrumentObservedDataset draws the same process as InstrumentDataset
// but keeps the ability column, so the confounder is measurable
// alongside the instrument.
func InstrumentObservedDataset(n int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ability := make([]float64, n)
	proximity := make([]float64, n)
	education := make([]float64, n)
	income := make([]float64, n)
	for i := 0; i < n; i++ {
		ability[i] = rng.NormFloat64()
		proximity[i] = float64(rng.Intn(2))
		education[i] = 1 + 1.2*proximity[i] + 0.8*ability[i] + 0.5*rng.NormFloat64()
		income[i] = 5 + TrueEducationEffect*education[i] + 2*ability[i] + rng.NormFloat64()
	}
	return mustDataset([]string{"ability", "proximity", "education", "income"}, map[string][]float64{
		"ability":   ability,
		"proximity": proximity,
		"education": education,
		"income":    income,
	})
}

// RCTDataset draws a randomized experiment: a fair coin assigns the
// treatment, so the outcome difference is the causal effect.
func RCTDataset(n int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	treatment := make([]float64, n)
	outcome := make([]float64, n)
	for i := 0; i < n; i++ {
		treatment[i] = float64(rng.Intn(2))
		outcome[i] = 3 + TrueRCTEffect*treatment[i] + rng.NormFloat64()
	}
	return mustDataset([]string{"treatment", "outcome"}, map[string][]float64{
		"treatment": treatment,
		"outcome":   outcome,
	})
}

// DiDDataset draws a balanced two-by-two panel. The treated group starts
// higher, both groups trend upward, and the interaction adds the true
// effect on top.
func DiDDataset(perCell int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	n := 4 * perCell
	group := make([]float64, 0, n)
	period := make([]float64, 0, n)
	outcome := make([]float64, 0, n)
	for _, g := range []float64{0, 1} {
		for _, t := range []float64{0, 1} {
			for i := 0; i < perCell; i++ {
				y := 1 + 0.5*g + 1.0*t + TrueDiDEffect*g*t + 0.5*rng.NormFloat64()
				group = append(group, g)
				period = append(period, t)
				outcome = append(outcome, y)
			}
		}
	}
	return mustDataset([]string{"group", "period", "outcome"}, map[string][]float64{
		"group":   group,
		"period":  period,
		"outcome": outcome,
	})
}

// MatchingDataset draws a binary treatment whose assignment probability
// rises with a single observed confounder. Matching on the confounder's
// propensity recovers the ATT; the naive difference overstates it.
func MatchingDataset(n int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	confounder := make([]float64, n)
	treatment := make([]float64, n)
	outcome := make([]float64, n)
	for i := 0; i < n; i++ {
		confounder[i] = rng.NormFloat64()
		p := 1 / (1 + math.Exp(-confounder[i]))
		if rng.Float64() < p {
			treatment[i] = 1
		}
		outcome[i] = 2 + TrueATT*treatment[i] + 1.2*confounder[i] + 0.5*rng.NormFloat64()
	}
	return mustDataset([]string{"severity", "treatment", "outcome"}, map[string][]float64{
		"severity":  confounder,
		"treatment": treatment,
		"outcome":   outcome,
	})
}

// MatchingGraph declares severity as the confounder of treatment and
// outcome.
func MatchingGraph() *graph.DAG {
	g := graph.New()
	g.Assume("severity").Causes("treatment", "outcome")
	g.Assume("treatment").Causes("outcome")
	return g
}

// RCTGraph declares a parentless treatment causing the outcome.
func RCTGraph() *graph.DAG {
	g := graph.New()
	g.Assume("treatment").Causes("outcome")
	return g
}

// DiDGraph declares group and period as direct causes of the outcome.
func DiDGraph() *graph.DAG {
	g := graph.New()
	g.Assume("group").Causes("outcome")
	g.Assume("period").Causes("outcome")
	return g
}

func mustDataset(names []string, cols map[string][]float64) *dataset.Dataset {
	ds, err := dataset.FromColumns(names, cols)
	if err != nil {
		panic(err)
	}
	return ds
}
