package decomp

import (
	"context"
	"fmt"

	"github.com/dbsmedya/godecomp/internal/config"
	"github.com/dbsmedya/godecomp/internal/keys"
	"github.com/dbsmedya/godecomp/internal/logger"
	"github.com/dbsmedya/godecomp/internal/types"
)

// Run is one completed decomposition: the R-squared sequence, the
// derived percentage components, and the aligned-sample metadata.
// Runs are immutable once computed.
type Run struct {
	Key           types.RunKey
	R2            [NumSpecs]float64
	Components    Components
	SampleSize    int
	IndustryCount int
}

// Failure records a run that could not be completed, with its reason.
// A missing row in the result table is never silent: the failure for
// any expected key is retrievable.
type Failure struct {
	Key types.RunKey
	Err error
}

// Table collects the runs of one sweep, the synthetic mean rows, and
// any per-run failures.
type Table struct {
	Runs     []Run
	MeanRows []Run
	Failures []Failure
	Expected int // size of the configured cross product
}

// RunFor returns the completed run for a key, if present.
func (t *Table) RunFor(key types.RunKey) (*Run, bool) {
	for i := range t.Runs {
		if t.Runs[i].Key == key {
			return &t.Runs[i], true
		}
	}
	for i := range t.MeanRows {
		if t.MeanRows[i].Key == key {
			return &t.MeanRows[i], true
		}
	}
	return nil, false
}

// FailureFor returns the recorded failure reason for a key, if any.
func (t *Table) FailureFor(key types.RunKey) (error, bool) {
	for _, f := range t.Failures {
		if f.Key == key {
			return f.Err, true
		}
	}
	return nil, false
}

// SidePair pairs the cause and effect runs of one outcome at one
// granularity, for the two-panel side-by-side presentation. Either run
// may be nil if that combination failed.
type SidePair struct {
	Outcome int
	Cause   *Run
	Effect  *Run
}

// SideBySide reshapes the table to the fixed-granularity, per-category
// view the rendering layer consumes: five outcomes, cause and effect
// side by side, mean rows excluded.
func (t *Table) SideBySide(g types.Granularity) []SidePair {
	pairs := make([]SidePair, 0, types.NumCategories)
	for c := 1; c <= types.NumCategories; c++ {
		pair := SidePair{Outcome: c}
		if r, ok := t.RunFor(types.RunKey{Side: types.SideCause, Granularity: g, Outcome: c}); ok {
			pair.Cause = r
		}
		if r, ok := t.RunFor(types.RunKey{Side: types.SideEffect, Granularity: g, Outcome: c}); ok {
			pair.Effect = r
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

// Orchestrator iterates the projection engine and share calculator over
// the configured cross product of side, industry granularity, and
// outcome variable. It holds only immutable inputs; each run is
// independent of its siblings.
type Orchestrator struct {
	rows        []types.PanelRow
	cfg         config.SweepConfig
	logger      *logger.Logger
	sides       []types.Side
	grans       []types.Granularity
	outcomes    []int
	bySide      map[types.Side][]types.PanelRow
	initialized bool
}

// NewOrchestrator creates a sweep orchestrator over an already-built
// panel. The orchestrator must be initialized with Initialize() before
// use.
func NewOrchestrator(rows []types.PanelRow, cfg config.SweepConfig, log *logger.Logger) (*Orchestrator, error) {
	if rows == nil {
		return nil, fmt.Errorf("panel is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Orchestrator{
		rows:   rows,
		cfg:    cfg,
		logger: log,
	}, nil
}

// Initialize resolves the sweep axes from configuration and partitions
// the panel by side. This method must be called before Execute().
func (o *Orchestrator) Initialize() error {
	if o.initialized {
		return nil
	}

	for _, s := range o.cfg.Sides {
		side := types.Side(s)
		if !side.Valid() {
			return fmt.Errorf("unknown side %q in sweep configuration", s)
		}
		o.sides = append(o.sides, side)
	}
	for _, g := range o.cfg.Granularities {
		o.grans = append(o.grans, types.Granularity(g))
	}
	o.outcomes = append(o.outcomes, o.cfg.Outcomes...)

	if len(o.sides) == 0 || len(o.grans) == 0 || len(o.outcomes) == 0 {
		return fmt.Errorf("sweep configuration has an empty axis")
	}

	o.bySide = make(map[types.Side][]types.PanelRow, len(o.sides))
	for _, row := range o.rows {
		o.bySide[row.Side] = append(o.bySide[row.Side], row)
	}

	o.initialized = true

	o.logger.Infow("Sweep orchestrator initialized",
		"panel_rows", len(o.rows),
		"sides", len(o.sides),
		"granularities", len(o.grans),
		"outcomes", len(o.outcomes),
	)

	return nil
}

// Execute runs the full sweep. A failed run is logged and recorded on
// the table with its combination's identity; it does not abort the
// remaining combinations. Cancellation via ctx stops the sweep between
// runs.
func (o *Orchestrator) Execute(ctx context.Context) (*Table, error) {
	if !o.initialized {
		return nil, fmt.Errorf("orchestrator not initialized")
	}
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}

	table := &Table{
		Expected: len(o.sides) * len(o.grans) * len(o.outcomes),
	}

	for _, side := range o.sides {
		sideRows := o.bySide[side]
		for _, gran := range o.grans {
			ks, err := keys.Build(sideRows, gran)
			if err != nil {
				for _, outcome := range o.outcomes {
					key := types.RunKey{Side: side, Granularity: gran, Outcome: outcome}
					table.Failures = append(table.Failures, Failure{Key: key, Err: err})
				}
				o.logger.Warnw("Key derivation failed",
					"side", side, "granularity", gran.Label(), "error", err)
				continue
			}

			for _, outcome := range o.outcomes {
				if err := ctx.Err(); err != nil {
					return table, err
				}

				key := types.RunKey{Side: side, Granularity: gran, Outcome: outcome}
				run, err := o.runOne(key, sideRows, ks)
				if err != nil {
					table.Failures = append(table.Failures, Failure{Key: key, Err: err})
					o.logger.WithRun(key.String()).Warnw("Decomposition run failed", "error", err)
					continue
				}
				table.Runs = append(table.Runs, *run)
				o.logger.WithRun(key.String()).Debugw("Decomposition run complete",
					"sample_size", run.SampleSize,
					"industries", run.IndustryCount,
					"r2_saturated", run.R2[NumSpecs-1],
				)
			}

			o.appendMeanRow(table, side, gran)
		}
	}

	o.logger.Infow("Sweep complete",
		"expected", table.Expected,
		"completed", len(table.Runs),
		"failed", len(table.Failures),
		"mean_rows", len(table.MeanRows),
	)

	return table, nil
}

// runOne fits one (side, granularity, outcome) combination.
func (o *Orchestrator) runOne(key types.RunKey, rows []types.PanelRow, ks *keys.Set) (*Run, error) {
	y := make([]float64, len(rows))
	for i, row := range rows {
		y[i] = row.Shares[key.Outcome-1]
	}

	fit, err := FitNested(y, ks)
	if err != nil {
		return nil, err
	}

	components, err := Shares(fit.R2)
	if err != nil {
		return nil, err
	}

	return &Run{
		Key:           key,
		R2:            fit.R2,
		Components:    components,
		SampleSize:    fit.SampleSize,
		IndustryCount: fit.IndustryCount,
	}, nil
}

// appendMeanRow derives the synthetic "mean" row for one
// (side, granularity) group: the arithmetic mean of every numeric field
// across its completed outcome runs. Sample-size metadata is carried
// from the first constituent run, not averaged; estimation samples
// differ across outcomes, so an averaged size has no referent.
func (o *Orchestrator) appendMeanRow(table *Table, side types.Side, gran types.Granularity) {
	var group []*Run
	for _, outcome := range o.outcomes {
		if r, ok := table.RunFor(types.RunKey{Side: side, Granularity: gran, Outcome: outcome}); ok {
			group = append(group, r)
		}
	}
	if len(group) == 0 {
		return
	}

	mean := Run{
		Key:           types.RunKey{Side: side, Granularity: gran, Outcome: types.MeanOutcome},
		SampleSize:    group[0].SampleSize,
		IndustryCount: group[0].IndustryCount,
	}

	n := float64(len(group))
	for _, r := range group {
		for s := 0; s < NumSpecs; s++ {
			mean.R2[s] += r.R2[s] / n
		}
		mean.Components.Time += r.Components.Time / n
		mean.Components.Industry += r.Components.Industry / n
		mean.Components.IndustryTime += r.Components.IndustryTime / n
		mean.Components.Technology += r.Components.Technology / n
		mean.Components.TechnologyTime += r.Components.TechnologyTime / n
		mean.Components.FirmTotal += r.Components.FirmTotal / n
		mean.Components.Firm += r.Components.Firm / n
		mean.Components.Residual += r.Components.Residual / n
	}

	table.MeanRows = append(table.MeanRows, mean)
}
