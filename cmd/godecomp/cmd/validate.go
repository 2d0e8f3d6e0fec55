package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/godecomp/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate checks the configuration file for syntax errors, required
fields, and consistent sweep axes.

Checks performed:
  - Configuration syntax and required fields
  - Input source settings (csv path or MySQL connection and table)
  - Panel threshold and sweep axis ranges
  - Base granularity membership
  - Logging settings

Example:
  godecomp validate --config godecomp.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.MinEvidence, overrides.InputPath, overrides.NoColor)

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", configFile)
	cmd.Printf("Input format: %s\n", cfg.Input.Format)
	cmd.Printf("Sweep size: %d run(s)\n\n",
		len(cfg.Sweep.Sides)*len(cfg.Sweep.Granularities)*len(cfg.Sweep.Outcomes))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	cmd.Println("Configuration is valid")
	return nil
}
