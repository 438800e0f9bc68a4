package refute

import (
	"fmt"
	"strings"

	"causalkit/domain/core"
)

// Report aggregates an ordered list of refutation checks for one fitted
// result. Reports never mutate their checks after construction.
type Report struct {
	id         core.ReportID
	title      string
	checks     []Check
	computedAt core.Timestamp
}

// NewReport builds a report over the given checks, preserving order.
func NewReport(title string, checks []Check) *Report {
	copied := make([]Check, len(checks))
	copy(copied, checks)
	return &Report{
		id:         core.NewReportID(),
		title:      title,
		checks:     copied,
		computedAt: core.Now(),
	}
}

// ID returns the report identifier.
func (r *Report) ID() core.ReportID { return r.id }

// Checks returns all checks in the order they were run.
func (r *Report) Checks() []Check {
	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, c := range r.checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// FailedChecks returns only the checks that did not pass.
func (r *Report) FailedChecks() []Check {
	var failed []Check
	for _, c := range r.checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// ComputedAt returns when the report was assembled.
func (r *Report) ComputedAt() core.Timestamp { return r.computedAt }

// Summary renders a plain-text report.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", r.title)
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, c := range r.checks {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s]  %s: %s\n", status, c.Name, c.Detail)
	}
	b.WriteString("\n")
	if r.Passed() {
		b.WriteString("  All checks passed.\n")
	} else {
		fmt.Fprintf(&b, "  %d check(s) failed - see above.\n", len(r.FailedChecks()))
	}
	return b.String()
}
