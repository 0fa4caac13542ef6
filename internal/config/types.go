package config

// Config represents the complete gpucfg configuration
type Config struct {
	DriverCapabilities []string      `yaml:"driver_capabilities"`
	LoadKmods          bool          `yaml:"load_kmods"`
	NoCgroups          bool          `yaml:"no_cgroups"`
	NoDevbind          bool          `yaml:"no_devbind"`
	LdconfigPath       string        `yaml:"ldconfig_path"`
	Logging            LoggingConfig `yaml:"logging"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
