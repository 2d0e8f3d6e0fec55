package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores the package-level flag state between executions;
// cobra binds the flag pointers once, so values persist across runs.
func resetFlags() {
	cfgFile = "godecomp.yaml"
	logLevel = ""
	logFormat = ""
	minEvidence = 0
	inputPath = ""
	noColor = false
	decomposeDryRun = false
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"decompose", "panel", "list", "validate", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	for _, want := range []string{"config", "log-level", "log-format", "min-evidence", "input", "no-color"} {
		assert.NotNil(t, flags.Lookup(want), "missing flag %q", want)
	}
}

func TestGetCLIOverrides(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	logLevel = "debug"
	minEvidence = 7
	inputPath = "spans.csv"

	o := GetCLIOverrides()
	assert.Equal(t, "debug", o.LogLevel)
	assert.Equal(t, 7, o.MinEvidence)
	assert.Equal(t, "spans.csv", o.InputPath)
	assert.False(t, o.NoColor)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "godecomp version")
	assert.Contains(t, out, Version)
}

// writeTestConfig writes a config pointing at dir for all outputs and
// returns the config path.
func writeTestConfig(t *testing.T, dir, inputPath string, preaggregated bool) string {
	t.Helper()
	content := fmt.Sprintf(`
input:
  format: csv
  path: %s
  preaggregated: %t
panel:
  min_evidence: 1
output:
  results_dir: %s
  runs_dir: %s
  no_color: true
logging:
  level: error
  format: json
  output: stderr
`, inputPath, preaggregated, filepath.Join(dir, "results"), filepath.Join(dir, "runs"))

	path := filepath.Join(dir, "godecomp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writePanelCSV writes a balanced pre-aggregated panel: every share
// varies across rows and shares sum to one, so every sweep run has an
// estimable sample with outcome variance.
func writePanelCSV(t *testing.T, dir string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("side,entity_id,group_id,time_id,industry_code,share_1,share_2,share_3,share_4,share_5,n_total\n")
	for _, side := range []string{"cause", "effect"} {
		for e := 1; e <= 3; e++ {
			for _, tech := range []string{"AI", "Cloud"} {
				for p := 1; p <= 4; p++ {
					d1 := 0.01 * float64(e)
					d2 := 0.005 * float64(p)
					d3 := 0.004 * float64(e+p)
					if tech == "AI" {
						d3 += 0.01
					}
					shares := []float64{
						0.2 + d1 - d3,
						0.2 + d2,
						0.2 + d3,
						0.2 - d2,
						0.2 - d1,
					}
					b.WriteString(fmt.Sprintf("%s,%d,%s,%d,3711", side, e, tech, p))
					for _, s := range shares {
						b.WriteString(fmt.Sprintf(",%.6f", s))
					}
					b.WriteString(",10\n")
				}
			}
		}
	}

	path := filepath.Join(dir, "panel.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestDecomposeCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	panelPath := writePanelCSV(t, dir)
	cfgPath := writeTestConfig(t, dir, panelPath, true)

	out, _, err := execute(t, "decompose", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "=== Variance Decomposition ===")
	assert.Contains(t, out, "=== Cause / Effect by Category")
	assert.NotContains(t, out, "failed")

	// Exports and the run manifest land under the configured dirs.
	assert.FileExists(t, filepath.Join(dir, "results", "decomposition.csv"))
	assert.FileExists(t, filepath.Join(dir, "results", "decomposition_by_category.csv"))

	entries, err := os.ReadDir(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "decompose_"))
}

func TestDecomposeCommand_DryRun(t *testing.T) {
	dir := t.TempDir()
	panelPath := writePanelCSV(t, dir)
	cfgPath := writeTestConfig(t, dir, panelPath, true)

	out, _, err := execute(t, "decompose", "--config", cfgPath, "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "=== Variance Decomposition ===")
	assert.NoFileExists(t, filepath.Join(dir, "results", "decomposition.csv"))
	assert.NoDirExists(t, filepath.Join(dir, "runs"))
}

func TestDecomposeCommand_BadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "godecomp.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("input:\n  format: parquet\n"), 0o644))

	_, _, err := execute(t, "decompose", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestPanelCommand(t *testing.T) {
	dir := t.TempDir()

	spans := `side,entity_id,group_id,time_id,industry_code,statement_id,category_id
cause,1,AI,2019Q1,3711,s1,1
cause,1,AI,2019Q1,3711,s2,1
cause,1,AI,2019Q1,3711,s3,2
effect,2,Cloud,2019Q2,2800,s4,3
`
	spansPath := filepath.Join(dir, "spans.csv")
	require.NoError(t, os.WriteFile(spansPath, []byte(spans), 0o644))
	cfgPath := writeTestConfig(t, dir, spansPath, false)

	out, _, err := execute(t, "panel", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "=== Panel Summary ===")
	assert.Contains(t, out, "Spans consumed: 4")
	assert.Contains(t, out, "Side: cause")
	assert.Contains(t, out, "Side: effect")
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, filepath.Join(dir, "unused.csv"), true)

	out, _, err := execute(t, "list", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "cause/2-digit/share_1")
	assert.Contains(t, out, "effect/4-digit/share_5")
	assert.Contains(t, out, "Tech Innovation & Advancement")
	assert.Contains(t, out, "Total: 30 run(s), plus 6 mean row(s)")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, filepath.Join(dir, "panel.csv"), true)

	out, _, err := execute(t, "validate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("sweep:\n  base_granularity: 9\n"), 0o644))
	_, _, err = execute(t, "validate", "--config", badPath)
	require.Error(t, err)
}
