// Package panel builds the firm x technology x quarter analysis panel
// from classified span records.
package panel

import (
	"fmt"
	"sort"

	"github.com/dbsmedya/godecomp/internal/config"
	"github.com/dbsmedya/godecomp/internal/logger"
	"github.com/dbsmedya/godecomp/internal/types"
)

// MissingFieldError is returned when a required key field is absent on
// one or more input records. Upstream data contracts guarantee these
// fields are populated, so any occurrence is a hard failure for the
// whole panel build rather than a silent drop.
type MissingFieldError struct {
	Field string
	Rows  int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q missing on %d input record(s)", e.Field, e.Rows)
}

// Builder aggregates span records into panel rows.
type Builder struct {
	minEvidence int
	logger      *logger.Logger
}

// NewBuilder creates a Builder from panel configuration.
func NewBuilder(cfg config.PanelConfig, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Builder{
		minEvidence: cfg.MinEvidence,
		logger:      log,
	}
}

// dedupeKey identifies one countable contribution: a statement may
// legitimately contribute to more than one category, but must not be
// counted twice within the same category of the same cell.
type dedupeKey struct {
	side        types.Side
	entityID    int64
	technology  string
	period      int
	statementID string
	category    int
}

// rowKey identifies one panel cell.
type rowKey struct {
	side       types.Side
	entityID   int64
	technology string
	period     int
	industry   int
}

// Build aggregates spans into panel rows: deduplicate, count per
// category, total, compute shares, and drop cells with less evidence
// than the minimum threshold. The result is sorted deterministically.
func (b *Builder) Build(spans []types.Span) ([]types.PanelRow, error) {
	if err := checkRequiredFields(spans); err != nil {
		return nil, err
	}

	seen := make(map[dedupeKey]struct{}, len(spans))
	cells := make(map[rowKey]*[types.NumCategories]int)

	deduped := 0
	for _, s := range spans {
		dk := dedupeKey{
			side:        s.Side,
			entityID:    s.EntityID,
			technology:  s.Technology,
			period:      s.Period,
			statementID: s.StatementID,
			category:    s.Category,
		}
		if _, dup := seen[dk]; dup {
			deduped++
			continue
		}
		seen[dk] = struct{}{}

		rk := rowKey{
			side:       s.Side,
			entityID:   s.EntityID,
			technology: s.Technology,
			period:     s.Period,
			industry:   s.IndustryCode,
		}
		counts, ok := cells[rk]
		if !ok {
			counts = &[types.NumCategories]int{}
			cells[rk] = counts
		}
		counts[s.Category-1]++
	}

	rows := make([]types.PanelRow, 0, len(cells))
	dropped := 0
	for rk, counts := range cells {
		total := 0
		for _, n := range counts {
			total += n
		}
		if total == 0 {
			continue
		}
		if total < b.minEvidence {
			dropped++
			continue
		}

		row := types.PanelRow{
			EntityID:     rk.entityID,
			Technology:   rk.technology,
			Period:       rk.period,
			Side:         rk.side,
			IndustryCode: rk.industry,
			Counts:       *counts,
			Total:        total,
		}
		for c := 0; c < types.NumCategories; c++ {
			row.Shares[c] = float64(counts[c]) / float64(total)
		}
		rows = append(rows, row)
	}

	sortRows(rows)

	b.logger.Infow("Panel built",
		"spans", len(spans),
		"duplicates", deduped,
		"rows", len(rows),
		"dropped_below_threshold", dropped,
		"min_evidence", b.minEvidence,
	)

	return rows, nil
}

// Validate passes through a pre-aggregated panel after checking that
// every row carries a full set of shares summing to one. Rows whose
// evidence count is known and below the threshold are dropped, matching
// Build's behavior.
func (b *Builder) Validate(rows []types.PanelRow) ([]types.PanelRow, error) {
	if err := checkRequiredRowFields(rows); err != nil {
		return nil, err
	}

	const shareTol = 1e-9

	out := make([]types.PanelRow, 0, len(rows))
	for i, row := range rows {
		sum := 0.0
		for c := 0; c < types.NumCategories; c++ {
			sum += row.Shares[c]
		}
		if sum < 1-shareTol || sum > 1+shareTol {
			return nil, fmt.Errorf("pre-aggregated row %d: shares sum to %.12f, want 1", i, sum)
		}
		if row.Total > 0 && row.Total < b.minEvidence {
			continue
		}
		out = append(out, row)
	}

	sortRows(out)
	return out, nil
}

// checkRequiredFields scans spans for absent key fields. The first
// offending field is reported with its occurrence count.
func checkRequiredFields(spans []types.Span) error {
	missing := map[string]int{}
	for _, s := range spans {
		switch {
		case !s.Side.Valid():
			missing["side"]++
		case s.EntityID == 0:
			missing["entity_id"]++
		case s.Technology == "":
			missing["group_id"]++
		case s.Period == 0:
			missing["time_id"]++
		case s.IndustryCode <= 0:
			missing["industry_code"]++
		case s.StatementID == "":
			missing["statement_id"]++
		case s.Category < 1 || s.Category > types.NumCategories:
			missing["category_id"]++
		}
	}
	return firstMissing(missing)
}

func checkRequiredRowFields(rows []types.PanelRow) error {
	missing := map[string]int{}
	for _, r := range rows {
		switch {
		case !r.Side.Valid():
			missing["side"]++
		case r.EntityID == 0:
			missing["entity_id"]++
		case r.Technology == "":
			missing["group_id"]++
		case r.Period == 0:
			missing["time_id"]++
		case r.IndustryCode <= 0:
			missing["industry_code"]++
		}
	}
	return firstMissing(missing)
}

func firstMissing(missing map[string]int) error {
	if len(missing) == 0 {
		return nil
	}
	fields := make([]string, 0, len(missing))
	for f := range missing {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return &MissingFieldError{Field: fields[0], Rows: missing[fields[0]]}
}

// sortRows orders rows deterministically so that downstream integer
// group-id assignment is stable within a run.
func sortRows(rows []types.PanelRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if a.Technology != b.Technology {
			return a.Technology < b.Technology
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.IndustryCode < b.IndustryCode
	})
}
