// Package config provides configuration loading for stockstats.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default values (Default)
//	2. A YAML file (--config, else stockstats.yaml or configs/stockstats.yaml)
//	3. Environment variables prefixed with STOCKSTATS_
//
// A .env file in the working directory is loaded into the environment by the
// command before Load runs.
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	STOCKSTATS_PROVIDER_BASE_URL=https://www.quandl.com/api
//	STOCKSTATS_PROVIDER_TIMEOUT=45s
//	STOCKSTATS_ANALYSIS_LEGACY_FIELD_INVERSION=false
//	STOCKSTATS_LOGGING_LEVEL=debug
//	STOCKSTATS_TELEMETRY_METRICS_TEXTFILE=/var/lib/node_exporter/stockstats.prom
//
// # Validation
//
// The loaded configuration is checked with validator struct tags; Load
// returns the validator error unchanged inside its wrapped error.
//
// The provider API key is not part of the configuration; it is passed per
// invocation with --key.
package config
