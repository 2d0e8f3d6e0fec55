package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/godecomp/internal/config"
	"github.com/dbsmedya/godecomp/internal/decomp"
	"github.com/dbsmedya/godecomp/internal/logger"
	"github.com/dbsmedya/godecomp/internal/manifest"
	"github.com/dbsmedya/godecomp/internal/render"
	"github.com/dbsmedya/godecomp/internal/types"
	"github.com/dbsmedya/godecomp/internal/verify"
)

var decomposeDryRun bool

var decomposeCmd = &cobra.Command{
	Use:   "decompose",
	Short: "Run the full variance-decomposition sweep",
	Long: `Decompose builds the analysis panel, runs one decomposition per
(side, industry granularity, outcome) combination, audits the results,
and writes the result table for the rendering layer.

The sweep process follows these steps:
  1. Load spans (or a pre-aggregated panel) and build the panel
  2. Fit six nested fixed-effects specifications per combination,
     all on the aligned sample of the most saturated specification
  3. Convert R-squared sequences into percentage shares
  4. Derive mean-across-outcomes rows per (side, granularity)
  5. Audit invariants, render, export CSVs, and write a run manifest

Example:
  godecomp decompose --config godecomp.yaml`,
	RunE: runDecompose,
}

func init() {
	decomposeCmd.Flags().BoolVar(&decomposeDryRun, "dry-run", false,
		"Run the sweep and print results without writing any files")

	rootCmd.AddCommand(decomposeCmd)
}

func runDecompose(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI overrides
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.MinEvidence, overrides.InputPath, overrides.NoColor)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infow("Starting decomposition sweep",
		"config", configFile,
		"input_format", cfg.Input.Format,
		"dry_run", decomposeDryRun,
	)

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - completing current run...")
		cancel()
	}()

	// Build the panel
	rows, spanCount, err := loadPanel(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Run the sweep
	orch, err := decomp.NewOrchestrator(rows, cfg.Sweep, log)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	if err := orch.Initialize(); err != nil {
		return fmt.Errorf("orchestrator initialization failed: %w", err)
	}

	table, err := orch.Execute(ctx)
	if err != nil {
		if err == context.Canceled {
			log.Warn("Sweep cancelled by user")
			return nil
		}
		return fmt.Errorf("sweep failed: %w", err)
	}

	// Audit invariants before handing anything downstream
	audit := verify.NewVerifier(log).Audit(table)
	if !audit.Passed() {
		for _, v := range audit.Violations {
			fmt.Fprintf(cmd.ErrOrStderr(), "audit violation: %s\n", v)
		}
		return fmt.Errorf("sweep audit failed with %d violation(s)", len(audit.Violations))
	}

	// Display results
	opts := render.Options{NoColor: cfg.Output.NoColor}
	fmt.Fprintf(cmd.OutOrStdout(), "\n=== Variance Decomposition ===\n\n")
	if err := render.Table(cmd.OutOrStdout(), table, opts); err != nil {
		return err
	}

	base := types.Granularity(cfg.Sweep.BaseGranularity)
	pairs := table.SideBySide(base)
	fmt.Fprintf(cmd.OutOrStdout(), "\n=== Cause / Effect by Category (%s industry FE) ===\n\n", base.Label())
	if err := render.SideBySide(cmd.OutOrStdout(), pairs, opts); err != nil {
		return err
	}

	if decomposeDryRun {
		log.Info("Dry run - skipping result and manifest output")
		return nil
	}

	// Export for the table layer
	resultsPath := filepath.Join(cfg.Output.ResultsDir, "decomposition.csv")
	if err := render.WriteResultsCSV(resultsPath, table); err != nil {
		return err
	}
	pairsPath := filepath.Join(cfg.Output.ResultsDir, "decomposition_by_category.csv")
	if err := render.WriteSideBySideCSV(pairsPath, pairs); err != nil {
		return err
	}

	// Record the run
	m := manifest.New("decompose")
	if cfg.Input.Format == "csv" {
		m.InputFiles = append(m.InputFiles, cfg.Input.Path)
	}
	m.OutputFiles = append(m.OutputFiles, resultsPath, pairsPath)
	m.RowCounts["spans"] = spanCount
	m.RowCounts["panel_rows"] = len(rows)
	m.RowCounts["runs_completed"] = len(table.Runs)
	m.RowCounts["runs_failed"] = len(table.Failures)
	m.Parameters["min_evidence"] = cfg.Panel.MinEvidence
	m.Parameters["sides"] = cfg.Sweep.Sides
	m.Parameters["granularities"] = cfg.Sweep.Granularities
	m.Parameters["outcomes"] = cfg.Sweep.Outcomes

	manifestPath, err := manifest.Write(m, cfg.Output.RunsDir)
	if err != nil {
		return err
	}

	log.Infow("Decomposition complete",
		"results", resultsPath,
		"by_category", pairsPath,
		"manifest", manifestPath,
	)

	if len(table.Failures) > 0 {
		return fmt.Errorf("sweep completed with %d failed run(s)", len(table.Failures))
	}
	return nil
}
