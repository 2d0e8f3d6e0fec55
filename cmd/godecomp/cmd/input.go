package cmd

import (
	"context"
	"fmt"

	"github.com/dbsmedya/godecomp/internal/config"
	"github.com/dbsmedya/godecomp/internal/logger"
	"github.com/dbsmedya/godecomp/internal/panel"
	"github.com/dbsmedya/godecomp/internal/source"
	"github.com/dbsmedya/godecomp/internal/types"
)

// loadPanel reads the configured input and produces the analysis panel.
// Pre-aggregated panels skip aggregation and only pass validation.
// Returns the panel and the number of raw spans consumed (zero for
// pre-aggregated input).
func loadPanel(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]types.PanelRow, int, error) {
	builder := panel.NewBuilder(cfg.Panel, log)

	switch cfg.Input.Format {
	case "csv":
		if cfg.Input.Preaggregated {
			rows, err := source.LoadPanel(cfg.Input.Path)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to load panel: %w", err)
			}
			validated, err := builder.Validate(rows)
			if err != nil {
				return nil, 0, fmt.Errorf("panel validation failed: %w", err)
			}
			return validated, 0, nil
		}

		spans, err := source.LoadSpans(cfg.Input.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load spans: %w", err)
		}
		rows, err := builder.Build(spans)
		if err != nil {
			return nil, 0, fmt.Errorf("panel build failed: %w", err)
		}
		return rows, len(spans), nil

	case "mysql":
		src, err := source.ConnectMySQL(ctx, cfg.Input.MySQL, log)
		if err != nil {
			return nil, 0, err
		}
		defer src.Close()

		spans, err := src.Spans(ctx)
		if err != nil {
			return nil, 0, err
		}
		rows, err := builder.Build(spans)
		if err != nil {
			return nil, 0, fmt.Errorf("panel build failed: %w", err)
		}
		return rows, len(spans), nil

	default:
		return nil, 0, fmt.Errorf("unknown input format %q", cfg.Input.Format)
	}
}
