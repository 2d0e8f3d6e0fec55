// Package config provides configuration structures and loading for godecomp.
package config

// Config represents the complete application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Panel   PanelConfig   `yaml:"panel" mapstructure:"panel"`
	Sweep   SweepConfig   `yaml:"sweep" mapstructure:"sweep"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// InputConfig describes where the raw spans (or a pre-aggregated panel)
// come from.
type InputConfig struct {
	Format        string      `yaml:"format" mapstructure:"format"` // csv or mysql
	Path          string      `yaml:"path" mapstructure:"path"`     // csv file path
	Preaggregated bool        `yaml:"preaggregated" mapstructure:"preaggregated"`
	MySQL         MySQLConfig `yaml:"mysql" mapstructure:"mysql"`
}

// MySQLConfig represents a MySQL connection for the span source.
// The connection is read-only; godecomp never writes to it.
type MySQLConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	Table              string `yaml:"table" mapstructure:"table"`
	Where              string `yaml:"where" mapstructure:"where"`
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// PanelConfig represents panel construction settings.
type PanelConfig struct {
	// MinEvidence is the minimum number of categorized spans a
	// (firm, technology, quarter, side) cell needs to enter the panel.
	MinEvidence int `yaml:"min_evidence" mapstructure:"min_evidence"`
}

// SweepConfig represents the axes of the decomposition sweep.
type SweepConfig struct {
	Sides         []string `yaml:"sides" mapstructure:"sides"`
	Granularities []int    `yaml:"granularities" mapstructure:"granularities"`
	Outcomes      []int    `yaml:"outcomes" mapstructure:"outcomes"`
	// BaseGranularity selects the single granularity used for the
	// two-panel cause/effect reshape handed to the table layer.
	BaseGranularity int `yaml:"base_granularity" mapstructure:"base_granularity"`
}

// OutputConfig represents result output locations.
type OutputConfig struct {
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir"`
	RunsDir    string `yaml:"runs_dir" mapstructure:"runs_dir"` // run manifests
	NoColor    bool   `yaml:"no_color" mapstructure:"no_color"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
// The sweep defaults reproduce the reference configuration:
// 2 sides x 3 granularities x 5 outcomes = 30 runs.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Format: "csv",
			MySQL: MySQLConfig{
				Port:               3306,
				TLS:                "preferred",
				Table:              "spans",
				MaxConnections:     10,
				MaxIdleConnections: 5,
			},
		},
		Panel: PanelConfig{
			MinEvidence: 3,
		},
		Sweep: SweepConfig{
			Sides:           []string{"cause", "effect"},
			Granularities:   []int{2, 3, 4},
			Outcomes:        []int{1, 2, 3, 4, 5},
			BaseGranularity: 3,
		},
		Output: OutputConfig{
			ResultsDir: "results",
			RunsDir:    "results/runs",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, minEvidence int, inputPath string, noColor bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if minEvidence > 0 {
		c.Panel.MinEvidence = minEvidence
	}
	if inputPath != "" {
		c.Input.Path = inputPath
	}
	if noColor {
		c.Output.NoColor = true
	}
}
