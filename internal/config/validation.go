package config

import (
	"fmt"
	"path/filepath"

	"gpucfg/internal/capability"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateCapabilities()...)
	errors = append(errors, c.validateLdconfig()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateCapabilities() []ValidationError {
	var errors []ValidationError

	for _, name := range c.DriverCapabilities {
		if _, err := capability.Parse(name); err != nil {
			errors = append(errors, ValidationError{
				Path:    "driver_capabilities",
				Message: err.Error(),
			})
		}
	}

	return errors
}

func (c *Config) validateLdconfig() []ValidationError {
	if c.LdconfigPath == "" {
		return []ValidationError{{
			Path:    "ldconfig_path",
			Message: "must not be empty",
		}}
	}
	if !filepath.IsAbs(c.LdconfigPath) {
		return []ValidationError{{
			Path:    "ldconfig_path",
			Message: fmt.Sprintf("must be an absolute path, got '%s'", c.LdconfigPath),
		}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		errors = append(errors, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
		})
	}

	if c.Logging.File != "" && !filepath.IsAbs(c.Logging.File) {
		errors = append(errors, ValidationError{
			Path:    "logging.file",
			Message: fmt.Sprintf("must be an absolute path, got '%s'", c.Logging.File),
		})
	}

	return errors
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Capabilities converts the configured capability names to a Set.
// Validate must have passed before calling this.
func (c *Config) Capabilities() capability.Set {
	set := capability.NewSet()
	for _, name := range c.DriverCapabilities {
		if cap, err := capability.Parse(name); err == nil {
			set.Add(cap)
		}
	}
	return set
}
