// Package verify audits a completed sweep table against the
// decomposition's accounting invariants.
package verify

import (
	"fmt"
	"math"

	"github.com/dbsmedya/godecomp/internal/decomp"
	"github.com/dbsmedya/godecomp/internal/logger"
)

const (
	// sumTol is the allowed deviation of the seven-component partition
	// from 100.
	sumTol = 1e-6

	// monotoneTol matches the engine's clipping tolerance for nested
	// R-squared noise.
	monotoneTol = decomp.ClipTolerance
)

// Violation describes one failed invariant on one run.
type Violation struct {
	Run    string
	Check  string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Run, v.Check, v.Detail)
}

// Result contains overall audit statistics.
type Result struct {
	RunsChecked int
	Violations  []Violation
}

// Passed reports whether every checked run satisfied every invariant.
func (r *Result) Passed() bool {
	return len(r.Violations) == 0
}

// Verifier checks sweep results for internal consistency. It consumes
// the table verbatim and recomputes nothing from the panel.
type Verifier struct {
	logger *logger.Logger
}

// NewVerifier creates a verifier.
func NewVerifier(log *logger.Logger) *Verifier {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Verifier{logger: log}
}

// Audit checks every run and mean row of the table: R-squared
// monotonicity, component non-negativity, the sum-to-100 partition, the
// firm-level display aggregate, and sample metadata sanity.
func (v *Verifier) Audit(t *decomp.Table) *Result {
	result := &Result{}

	for i := range t.Runs {
		v.auditRun(&t.Runs[i], result, true)
	}
	for i := range t.MeanRows {
		// Mean rows average monotone sequences, which stays monotone;
		// the same checks apply.
		v.auditRun(&t.MeanRows[i], result, false)
	}

	if result.Passed() {
		v.logger.Infow("Sweep audit passed", "runs", result.RunsChecked)
	} else {
		v.logger.Errorw("Sweep audit failed",
			"runs", result.RunsChecked,
			"violations", len(result.Violations),
		)
	}

	return result
}

func (v *Verifier) auditRun(run *decomp.Run, result *Result, strictSample bool) {
	result.RunsChecked++
	name := run.Key.String()

	for s := 1; s < decomp.NumSpecs; s++ {
		if run.R2[s] < run.R2[s-1]-monotoneTol {
			result.Violations = append(result.Violations, Violation{
				Run:    name,
				Check:  "monotonicity",
				Detail: fmt.Sprintf("R2[%d]=%.12f < R2[%d]=%.12f", s+1, run.R2[s], s, run.R2[s-1]),
			})
		}
	}

	c := run.Components
	components := map[string]float64{
		"time":            c.Time,
		"industry":        c.Industry,
		"industry_time":   c.IndustryTime,
		"technology":      c.Technology,
		"technology_time": c.TechnologyTime,
		"firm":            c.Firm,
		"residual":        c.Residual,
	}
	for check, value := range components {
		if value < 0 {
			result.Violations = append(result.Violations, Violation{
				Run:    name,
				Check:  "non-negativity",
				Detail: fmt.Sprintf("%s = %g", check, value),
			})
		}
	}

	if sum := c.Sum(); math.Abs(sum-100) > sumTol {
		result.Violations = append(result.Violations, Violation{
			Run:    name,
			Check:  "sum-to-100",
			Detail: fmt.Sprintf("components sum to %.9f", sum),
		})
	}

	if math.Abs(c.FirmTotal-(c.Firm+c.Residual)) > sumTol {
		result.Violations = append(result.Violations, Violation{
			Run:    name,
			Check:  "firm-level aggregate",
			Detail: fmt.Sprintf("firm_total %.9f != firm %.9f + residual %.9f", c.FirmTotal, c.Firm, c.Residual),
		})
	}

	if strictSample && (run.SampleSize <= 0 || run.IndustryCount <= 0) {
		result.Violations = append(result.Violations, Violation{
			Run:    name,
			Check:  "sample metadata",
			Detail: fmt.Sprintf("sample_size=%d industries=%d", run.SampleSize, run.IndustryCount),
		})
	}
}
