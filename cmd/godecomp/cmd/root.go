package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile     string
	logLevel    string
	logFormat   string
	minEvidence int
	inputPath   string
	noColor     bool
)

var rootCmd = &cobra.Command{
	Use:   "godecomp",
	Short: "Nested Fixed-Effects Variance Decomposition",
	Long: `A CLI tool that quantifies how much of the variation in categorical
share outcomes, observed at the firm x technology x quarter level, is
attributable to successive layers of grouping structure.

Features:
  - Panel construction from classified span records (CSV or MySQL)
  - Six nested fixed-effects projections on one aligned sample per run
  - Non-negative percentage shares with a sum-to-100 guarantee
  - Sweep over sides, industry granularities, and outcome variables
  - Post-sweep invariant audit and CSV export for the table layer`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "godecomp.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Panel overrides
	rootCmd.PersistentFlags().IntVar(&minEvidence, "min-evidence", 0,
		"Override minimum spans per panel cell")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "",
		"Override input file path")

	// Output overrides
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored terminal output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel    string
	LogFormat   string
	MinEvidence int
	InputPath   string
	NoColor     bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		MinEvidence: minEvidence,
		InputPath:   inputPath,
		NoColor:     noColor,
	}
}
