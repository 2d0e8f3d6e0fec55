package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateInput()...)
	errors = append(errors, c.validatePanel()...)
	errors = append(errors, c.validateSweep()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateInput() ValidationErrors {
	var errors ValidationErrors

	switch c.Input.Format {
	case "csv":
		if c.Input.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "input.path",
				Message: "path is required for csv input",
			})
		}
	case "mysql":
		errors = append(errors, c.validateMySQL()...)
	default:
		errors = append(errors, ValidationError{
			Field:   "input.format",
			Message: "format must be 'csv' or 'mysql'",
		})
	}

	return errors
}

func (c *Config) validateMySQL() ValidationErrors {
	var errors ValidationErrors
	db := &c.Input.MySQL

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "input.mysql.host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "input.mysql.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   "input.mysql.user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "input.mysql.database",
			Message: "database name is required",
		})
	}

	if db.Table == "" {
		errors = append(errors, ValidationError{
			Field:   "input.mysql.table",
			Message: "table is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   "input.mysql.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "input.mysql.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "input.mysql.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validatePanel() ValidationErrors {
	var errors ValidationErrors

	if c.Panel.MinEvidence < 1 {
		errors = append(errors, ValidationError{
			Field:   "panel.min_evidence",
			Message: "min_evidence must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateSweep() ValidationErrors {
	var errors ValidationErrors

	if len(c.Sweep.Sides) == 0 {
		errors = append(errors, ValidationError{
			Field:   "sweep.sides",
			Message: "at least one side must be configured",
		})
	}
	validSides := map[string]bool{"cause": true, "effect": true}
	for _, s := range c.Sweep.Sides {
		if !validSides[s] {
			errors = append(errors, ValidationError{
				Field:   "sweep.sides",
				Message: fmt.Sprintf("unknown side %q (must be 'cause' or 'effect')", s),
			})
		}
	}

	if len(c.Sweep.Granularities) == 0 {
		errors = append(errors, ValidationError{
			Field:   "sweep.granularities",
			Message: "at least one granularity must be configured",
		})
	}
	for _, g := range c.Sweep.Granularities {
		if g < 1 || g > 4 {
			errors = append(errors, ValidationError{
				Field:   "sweep.granularities",
				Message: fmt.Sprintf("granularity %d out of range (1-4)", g),
			})
		}
	}

	if len(c.Sweep.Outcomes) == 0 {
		errors = append(errors, ValidationError{
			Field:   "sweep.outcomes",
			Message: "at least one outcome must be configured",
		})
	}
	seen := map[int]bool{}
	for _, o := range c.Sweep.Outcomes {
		if o < 1 || o > 5 {
			errors = append(errors, ValidationError{
				Field:   "sweep.outcomes",
				Message: fmt.Sprintf("outcome %d out of range (1-5)", o),
			})
		}
		if seen[o] {
			errors = append(errors, ValidationError{
				Field:   "sweep.outcomes",
				Message: fmt.Sprintf("outcome %d listed more than once", o),
			})
		}
		seen[o] = true
	}

	baseFound := false
	for _, g := range c.Sweep.Granularities {
		if g == c.Sweep.BaseGranularity {
			baseFound = true
			break
		}
	}
	if !baseFound {
		errors = append(errors, ValidationError{
			Field:   "sweep.base_granularity",
			Message: fmt.Sprintf("base granularity %d is not among the configured granularities", c.Sweep.BaseGranularity),
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
