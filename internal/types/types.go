// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import "fmt"

// NumCategories is the number of macro categories per side.
// Every span is classified into exactly one of them.
const NumCategories = 5

// Side identifies one of the two parallel analysis tracks.
type Side string

const (
	SideCause  Side = "cause"
	SideEffect Side = "effect"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideCause || s == SideEffect
}

// Sides lists both sides in presentation order (cause first).
var Sides = []Side{SideCause, SideEffect}

// Span is one classified text span, as delivered by the upstream
// extraction pipeline. Spans are read-only inputs; the panel builder
// never mutates them.
type Span struct {
	Side         Side
	EntityID     int64  // firm identifier (gvkey)
	Technology   string // technology label
	Period       int    // discrete quarter
	IndustryCode int    // 4-digit industry classification code
	StatementID  string // statement the span was extracted from
	Category     int    // macro category, 1..NumCategories
}

// PanelRow is the unit of analysis: one (firm, technology, quarter, side)
// cell with per-category evidence counts and shares. Rows are built once
// by aggregation and never mutated.
type PanelRow struct {
	EntityID     int64
	Technology   string
	Period       int
	Side         Side
	IndustryCode int
	Counts       [NumCategories]int
	Total        int
	Shares       [NumCategories]float64
}

// Granularity is the number of leading digits of the industry code used
// to form the industry fixed effect. Coarser granularities produce
// fewer, larger industry groups.
type Granularity int

// Label returns the conventional name for the granularity, e.g. "3-digit".
func (g Granularity) Label() string {
	return fmt.Sprintf("%d-digit", int(g))
}

// Coarsen truncates a 4-digit industry code to the granularity's leading
// digits. Codes already coarser than g are returned unchanged.
func (g Granularity) Coarsen(code int) int {
	limit := 1
	for i := 0; i < int(g); i++ {
		limit *= 10
	}
	for code >= limit {
		code /= 10
	}
	return code
}

// MeanOutcome is the synthetic outcome index used for rows that average
// the per-category runs of one (side, granularity) group.
const MeanOutcome = 0

// RunKey identifies one decomposition run: a (side, industry granularity,
// outcome share variable) triple. It is used as an explicit map key in
// place of interpolated column names.
type RunKey struct {
	Side        Side
	Granularity Granularity
	Outcome     int // 1..NumCategories, or MeanOutcome
}

// String renders the key for logs and error messages.
func (k RunKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Side, k.Granularity.Label(), k.OutcomeLabel())
}

// OutcomeLabel returns "share_1".."share_5", or "mean" for the synthetic
// averaged row.
func (k RunKey) OutcomeLabel() string {
	if k.Outcome == MeanOutcome {
		return "mean"
	}
	return fmt.Sprintf("share_%d", k.Outcome)
}

// CauseCategoryNames maps macro cause categories to their taxonomy names.
var CauseCategoryNames = map[int]string{
	1: "Tech Innovation & Advancement",
	2: "Market Demand & Consumer Behavior",
	3: "Strategic Partnerships & Collaboration",
	4: "Regulatory & Policy Drivers",
	5: "Cost & Economic Viability",
}

// EffectCategoryNames maps macro effect categories to their taxonomy names.
var EffectCategoryNames = map[int]string{
	1: "Revenue & Financial Growth",
	2: "Market Expansion & Adoption",
	3: "Product & Service Innovation",
	4: "Operational Efficiency",
	5: "Cost Reduction & Efficiency",
}

// CategoryName returns the taxonomy name for a category on the given side.
// Unknown categories return an empty string.
func CategoryName(side Side, category int) string {
	if side == SideCause {
		return CauseCategoryNames[category]
	}
	return EffectCategoryNames[category]
}
