// Package render displays and exports the sweep result table. It
// consumes completed runs verbatim and never recomputes any number.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/godecomp/internal/decomp"
	"github.com/dbsmedya/godecomp/internal/types"
)

// Options controls terminal rendering.
type Options struct {
	NoColor bool
}

var resultHeader = []string{
	"Side", "Industry FE", "Outcome",
	"Time", "Industry", "Ind×Qtr", "Tech", "Tech×Qtr", "Firm+Resid", "Firm", "Residual",
	"N", "Industries",
}

// Table writes the full result table, mean rows included, as an
// aligned text table.
func Table(w io.Writer, t *decomp.Table, opts Options) error {
	rows := make([][]string, 0, len(t.Runs)+len(t.MeanRows))
	for _, r := range t.Runs {
		rows = append(rows, resultRow(&r))
	}
	for _, r := range t.MeanRows {
		rows = append(rows, resultRow(&r))
	}

	if err := writeAligned(w, resultHeader, rows, opts); err != nil {
		return err
	}

	if len(t.Failures) > 0 {
		fmt.Fprintf(w, "\n%d of %d run(s) failed:\n", len(t.Failures), t.Expected)
		for _, f := range t.Failures {
			line := fmt.Sprintf("  - %s: %v\n", f.Key, f.Err)
			if opts.NoColor {
				fmt.Fprint(w, line)
			} else {
				fmt.Fprint(w, color.Red.Sprint(line))
			}
		}
	}

	return nil
}

func resultRow(r *decomp.Run) []string {
	c := r.Components
	return []string{
		string(r.Key.Side),
		r.Key.Granularity.Label(),
		outcomeCell(r.Key),
		pct(c.Time), pct(c.Industry), pct(c.IndustryTime), pct(c.Technology),
		pct(c.TechnologyTime), pct(c.FirmTotal), pct(c.Firm), pct(c.Residual),
		fmt.Sprintf("%d", r.SampleSize),
		fmt.Sprintf("%d", r.IndustryCount),
	}
}

func outcomeCell(k types.RunKey) string {
	if k.Outcome == types.MeanOutcome {
		return "mean"
	}
	if name := types.CategoryName(k.Side, k.Outcome); name != "" {
		return name
	}
	return k.OutcomeLabel()
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

var sideBySideHeader = []string{
	"Outcome",
	"Cause: Firm", "Cause: Tech", "Cause: Time", "Cause: Resid",
	"Effect: Firm", "Effect: Tech", "Effect: Time", "Effect: Resid",
}

// SideBySide writes the two-panel cause/effect view: one line per
// outcome category at the base granularity.
func SideBySide(w io.Writer, pairs []decomp.SidePair, opts Options) error {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		row := []string{outcomePairLabel(p)}
		row = append(row, sideCells(p.Cause)...)
		row = append(row, sideCells(p.Effect)...)
		rows = append(rows, row)
	}
	return writeAligned(w, sideBySideHeader, rows, opts)
}

func outcomePairLabel(p decomp.SidePair) string {
	cause := types.CategoryName(types.SideCause, p.Outcome)
	effect := types.CategoryName(types.SideEffect, p.Outcome)
	if cause == "" || effect == "" {
		return fmt.Sprintf("share_%d", p.Outcome)
	}
	return cause + " / " + effect
}

func sideCells(r *decomp.Run) []string {
	if r == nil {
		return []string{"-", "-", "-", "-"}
	}
	c := r.Components
	return []string{pct(c.Firm), pct(c.Technology + c.TechnologyTime), pct(c.Time), pct(c.Residual)}
}

// writeAligned renders header and rows as space-padded columns. Widths
// use display width, not byte length; the composite labels contain
// multi-byte characters.
func writeAligned(w io.Writer, header []string, rows [][]string, opts Options) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	headerLine := padRow(header, widths)
	if opts.NoColor {
		fmt.Fprintln(w, headerLine)
	} else {
		fmt.Fprintln(w, color.Bold.Sprint(headerLine))
	}
	fmt.Fprintln(w, strings.Repeat("-", runewidth.StringWidth(headerLine)))

	for _, row := range rows {
		if _, err := fmt.Fprintln(w, padRow(row, widths)); err != nil {
			return err
		}
	}
	return nil
}

func padRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = cell + strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell))
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}
