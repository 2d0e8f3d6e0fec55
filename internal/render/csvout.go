package render

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbsmedya/godecomp/internal/decomp"
	"github.com/dbsmedya/godecomp/internal/types"
)

// resultColumns is the complete downstream contract: the table layer
// consumes these records and must not re-derive any of them.
var resultColumns = []string{
	"side", "granularity", "outcome",
	"time", "industry", "industry_time", "technology", "technology_time",
	"firm_total", "firm", "residual",
	"r2_1", "r2_2", "r2_3", "r2_4", "r2_5", "r2_6",
	"sample_size", "industries",
}

// WriteResultsCSV writes the full sweep table, mean rows included, to
// path, creating parent directories as needed.
func WriteResultsCSV(path string, t *decomp.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(resultColumns); err != nil {
		return err
	}
	for _, r := range t.Runs {
		if err := w.Write(resultRecord(&r)); err != nil {
			return err
		}
	}
	for _, r := range t.MeanRows {
		if err := w.Write(resultRecord(&r)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func resultRecord(r *decomp.Run) []string {
	c := r.Components
	record := []string{
		string(r.Key.Side),
		r.Key.Granularity.Label(),
		r.Key.OutcomeLabel(),
		num(c.Time), num(c.Industry), num(c.IndustryTime), num(c.Technology),
		num(c.TechnologyTime), num(c.FirmTotal), num(c.Firm), num(c.Residual),
	}
	for s := 0; s < decomp.NumSpecs; s++ {
		record = append(record, num(r.R2[s]))
	}
	record = append(record,
		fmt.Sprintf("%d", r.SampleSize),
		fmt.Sprintf("%d", r.IndustryCount),
	)
	return record
}

func num(v float64) string {
	return fmt.Sprintf("%.9f", v)
}

var sideBySideColumns = []string{
	"outcome", "cause_category", "effect_category",
	"cause_time", "cause_technology", "cause_technology_time", "cause_firm", "cause_residual",
	"effect_time", "effect_technology", "effect_technology_time", "effect_firm", "effect_residual",
}

// WriteSideBySideCSV writes the two-panel reshape to path.
func WriteSideBySideCSV(path string, pairs []decomp.SidePair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create side-by-side file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sideBySideColumns); err != nil {
		return err
	}
	for _, p := range pairs {
		record := []string{
			fmt.Sprintf("share_%d", p.Outcome),
			types.CategoryName(types.SideCause, p.Outcome),
			types.CategoryName(types.SideEffect, p.Outcome),
		}
		record = append(record, sideRecord(p.Cause)...)
		record = append(record, sideRecord(p.Effect)...)
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func sideRecord(r *decomp.Run) []string {
	if r == nil {
		return []string{"", "", "", "", ""}
	}
	c := r.Components
	return []string{num(c.Time), num(c.Technology), num(c.TechnologyTime), num(c.Firm), num(c.Residual)}
}
