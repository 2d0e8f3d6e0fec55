package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/godecomp/internal/config"
	"github.com/dbsmedya/godecomp/internal/logger"
	"github.com/dbsmedya/godecomp/internal/types"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Build the analysis panel and print summary statistics",
	Long: `Panel loads the configured input, builds the firm x technology x
quarter panel, and prints per-side summary statistics without running
any decomposition.

Example:
  godecomp panel --config godecomp.yaml`,
	RunE: runPanel,
}

func init() {
	rootCmd.AddCommand(panelCmd)
}

func runPanel(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.MinEvidence, overrides.InputPath, overrides.NoColor)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	rows, spanCount, err := loadPanel(context.Background(), cfg, log)
	if err != nil {
		return err
	}

	cmd.Printf("\n=== Panel Summary ===\n")
	if spanCount > 0 {
		cmd.Printf("Spans consumed: %d\n", spanCount)
	}
	cmd.Printf("Panel rows: %d\n", len(rows))
	cmd.Printf("Min evidence threshold: %d\n\n", cfg.Panel.MinEvidence)

	for _, side := range types.Sides {
		entities := map[int64]struct{}{}
		techs := map[string]struct{}{}
		periods := map[int]struct{}{}
		industries := map[int]struct{}{}
		count := 0
		totalEvidence := 0

		for _, row := range rows {
			if row.Side != side {
				continue
			}
			count++
			totalEvidence += row.Total
			entities[row.EntityID] = struct{}{}
			techs[row.Technology] = struct{}{}
			periods[row.Period] = struct{}{}
			industries[row.IndustryCode] = struct{}{}
		}

		cmd.Printf("--- Side: %s ---\n", side)
		cmd.Printf("Rows:        %d\n", count)
		cmd.Printf("Firms:       %d\n", len(entities))
		cmd.Printf("Technologies: %d\n", len(techs))
		cmd.Printf("Quarters:    %d\n", len(periods))
		cmd.Printf("Industries:  %d\n", len(industries))
		if count > 0 {
			cmd.Printf("Mean spans per row: %.2f\n", float64(totalEvidence)/float64(count))
		}
		cmd.Println()
	}

	return nil
}
