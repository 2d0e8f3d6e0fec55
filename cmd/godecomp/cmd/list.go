package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/godecomp/internal/config"
	"github.com/dbsmedya/godecomp/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the decomposition runs the configured sweep will execute",
	Long: `List enumerates the cross product of sides, industry granularities,
and outcome variables defined in the configuration file, without
loading any data.

Example:
  godecomp list --config godecomp.yaml`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cmd.Printf("Sweep defined in %s:\n\n", configFile)

	i := 0
	for _, s := range cfg.Sweep.Sides {
		side := types.Side(s)
		for _, g := range cfg.Sweep.Granularities {
			gran := types.Granularity(g)
			for _, outcome := range cfg.Sweep.Outcomes {
				i++
				key := types.RunKey{Side: side, Granularity: gran, Outcome: outcome}
				name := types.CategoryName(side, outcome)
				cmd.Printf("%2d. %-28s %s\n", i, key.String(), name)
			}
		}
	}

	cmd.Printf("\nTotal: %d run(s), plus %d mean row(s)\n",
		i, len(cfg.Sweep.Sides)*len(cfg.Sweep.Granularities))
	return nil
}
