// Package source loads span records and pre-aggregated panels from the
// configured upstream location (CSV export or MySQL).
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dbsmedya/godecomp/internal/types"
)

// column resolves a header name to its index, accepting the canonical
// name plus the aliases used by the upstream panel exports.
type columns map[string]int

func headerColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func (c columns) find(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := c[n]; ok {
			return i, true
		}
	}
	return -1, false
}

// LoadSpans reads classified span records from a CSV file.
// Required columns (aliases in parentheses): side, entity_id (gvkey),
// group_id (technology), time_id (dateq, period), industry_code (sic),
// statement_id, category_id (category). A missing column or an
// unparseable field is a hard failure for the whole load.
func LoadSpans(path string) ([]types.Span, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open span file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read span header: %w", err)
	}
	cols := headerColumns(header)

	side, ok := cols.find("side")
	if !ok {
		return nil, fmt.Errorf("span file %s: missing column side", path)
	}
	entity, ok := cols.find("entity_id", "gvkey")
	if !ok {
		return nil, fmt.Errorf("span file %s: missing column entity_id", path)
	}
	tech, ok := cols.find("group_id", "technology")
	if !ok {
		return nil, fmt.Errorf("span file %s: missing column group_id", path)
	}
	period, ok := cols.find("time_id", "dateq", "period")
	if !ok {
		return nil, fmt.Errorf("span file %s: missing column time_id", path)
	}
	industry, ok := cols.find("industry_code", "sic")
	if !ok {
		return nil, fmt.Errorf("span file %s: missing column industry_code", path)
	}
	statement, ok := cols.find("statement_id")
	if !ok {
		return nil, fmt.Errorf("span file %s: missing column statement_id", path)
	}
	category, ok := cols.find("category_id", "category")
	if !ok {
		return nil, fmt.Errorf("span file %s: missing column category_id", path)
	}

	var spans []types.Span
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("span file %s line %d: %w", path, line+1, err)
		}
		line++

		span, err := parseSpan(record, side, entity, tech, period, industry, statement, category)
		if err != nil {
			return nil, fmt.Errorf("span file %s line %d: %w", path, line, err)
		}
		spans = append(spans, span)
	}

	return spans, nil
}

func parseSpan(record []string, side, entity, tech, period, industry, statement, category int) (types.Span, error) {
	var span types.Span

	span.Side = types.Side(strings.ToLower(strings.TrimSpace(record[side])))
	if !span.Side.Valid() {
		return span, fmt.Errorf("bad side %q", record[side])
	}

	entityID, err := types.ToInt64(record[entity])
	if err != nil {
		return span, fmt.Errorf("bad entity_id: %w", err)
	}
	span.EntityID = entityID

	span.Technology = strings.TrimSpace(record[tech])

	p, err := types.ParsePeriod(record[period])
	if err != nil {
		return span, fmt.Errorf("bad time_id: %w", err)
	}
	span.Period = p

	ind, err := types.ToInt64(record[industry])
	if err != nil {
		return span, fmt.Errorf("bad industry_code: %w", err)
	}
	span.IndustryCode = int(ind)

	span.StatementID = strings.TrimSpace(record[statement])

	cat, err := types.ToInt64(record[category])
	if err != nil {
		return span, fmt.Errorf("bad category_id: %w", err)
	}
	span.Category = int(cat)

	return span, nil
}

// LoadPanel reads a pre-aggregated panel from a CSV file. Required
// columns: the span key columns (minus statement/category), share_1
// through share_5, and optionally n_total. Missing share columns are a
// hard failure; the builder skips aggregation for panels loaded here.
func LoadPanel(path string) ([]types.PanelRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open panel file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read panel header: %w", err)
	}
	cols := headerColumns(header)

	side, ok := cols.find("side")
	if !ok {
		return nil, fmt.Errorf("panel file %s: missing column side", path)
	}
	entity, ok := cols.find("entity_id", "gvkey")
	if !ok {
		return nil, fmt.Errorf("panel file %s: missing column entity_id", path)
	}
	tech, ok := cols.find("group_id", "technology")
	if !ok {
		return nil, fmt.Errorf("panel file %s: missing column group_id", path)
	}
	period, ok := cols.find("time_id", "dateq", "period")
	if !ok {
		return nil, fmt.Errorf("panel file %s: missing column time_id", path)
	}
	industry, ok := cols.find("industry_code", "sic")
	if !ok {
		return nil, fmt.Errorf("panel file %s: missing column industry_code", path)
	}

	var shareCols [types.NumCategories]int
	for c := 1; c <= types.NumCategories; c++ {
		idx, ok := cols.find(fmt.Sprintf("share_%d", c))
		if !ok {
			return nil, fmt.Errorf("panel file %s: missing column share_%d", path, c)
		}
		shareCols[c-1] = idx
	}
	total, hasTotal := cols.find("n_total", "n")

	var rows []types.PanelRow
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("panel file %s line %d: %w", path, line+1, err)
		}
		line++

		var row types.PanelRow
		row.Side = types.Side(strings.ToLower(strings.TrimSpace(record[side])))
		if !row.Side.Valid() {
			return nil, fmt.Errorf("panel file %s line %d: bad side %q", path, line, record[side])
		}

		entityID, err := types.ToInt64(record[entity])
		if err != nil {
			return nil, fmt.Errorf("panel file %s line %d: bad entity_id: %w", path, line, err)
		}
		row.EntityID = entityID
		row.Technology = strings.TrimSpace(record[tech])

		p, err := types.ParsePeriod(record[period])
		if err != nil {
			return nil, fmt.Errorf("panel file %s line %d: bad time_id: %w", path, line, err)
		}
		row.Period = p

		ind, err := types.ToInt64(record[industry])
		if err != nil {
			return nil, fmt.Errorf("panel file %s line %d: bad industry_code: %w", path, line, err)
		}
		row.IndustryCode = int(ind)

		for c := 0; c < types.NumCategories; c++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[shareCols[c]]), 64)
			if err != nil {
				return nil, fmt.Errorf("panel file %s line %d: bad share_%d: %w", path, line, c+1, err)
			}
			row.Shares[c] = v
		}
		if hasTotal {
			n, err := types.ToInt64(record[total])
			if err != nil {
				return nil, fmt.Errorf("panel file %s line %d: bad n_total: %w", path, line, err)
			}
			row.Total = int(n)
		}

		rows = append(rows, row)
	}

	return rows, nil
}
