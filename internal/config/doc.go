// Package config provides centralized configuration management for the
// registry series tools. It handles loading configuration from multiple
// sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CH_* for namespacing:
//
//	CH_SERIES_PERIOD_START=2019-01-01
//	CH_SERIES_PERIOD_END=2024-01-01
//	CH_SERIES_GRANULARITY=month
//	CH_SERIES_TRUNCATE_CHARS=2
//	CH_LOGGING_LEVEL=info
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	zipPath := paths.GetZipPath("BasicCompanyData-part1.zip")
//	storePath := paths.GetSeriesStorePath("series")
//
// # Validation
//
// All configuration is validated at load time. Binaries that build series
// additionally call ValidateSeries, which requires the observation period;
// the extractor runs without one.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
