package config

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		DriverCapabilities: []string{"utility", "compute"},
		LoadKmods:          false,
		NoCgroups:          false,
		NoDevbind:          false,
		LdconfigPath:       "/sbin/ldconfig",
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}
