package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// InputPathEnv overrides the raw-input source location when set.
// It is consulted only at load time.
const InputPathEnv = "GODECOMP_INPUT"

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	// Environment-style override of the input source location.
	if path, exists := os.LookupEnv(InputPathEnv); exists && path != "" {
		cfg.Input.Path = path
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Input.Path = expandEnvVar(cfg.Input.Path)

	cfg.Input.MySQL.Host = expandEnvVar(cfg.Input.MySQL.Host)
	cfg.Input.MySQL.User = expandEnvVar(cfg.Input.MySQL.User)
	cfg.Input.MySQL.Password = expandEnvVar(cfg.Input.MySQL.Password)
	cfg.Input.MySQL.Database = expandEnvVar(cfg.Input.MySQL.Database)

	cfg.Output.ResultsDir = expandEnvVar(cfg.Output.ResultsDir)
	cfg.Output.RunsDir = expandEnvVar(cfg.Output.RunsDir)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}
