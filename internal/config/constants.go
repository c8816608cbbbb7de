package config

import (
	"time"

	"stockstats/pkg/contracts"
)

// Application constants
const (
	AppName    = "stockstats"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable, e.g. STOCKSTATS_PROVIDER_TIMEOUT
	EnvPrefix = "STOCKSTATS"
	// APIKeyEnv supplies the provider key when --key is not given
	APIKeyEnv = EnvPrefix + "_API_KEY"

	DefaultProviderBaseURL = "https://www.quandl.com/api"
	DefaultDataset         = "WIKI"
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultLogLevel        = "info"

	// DefaultBusyThreshold marks a day busy when its volume exceeds mean*1.10
	DefaultBusyThreshold = 1.10
)

// Provider endpoints, relative to the base URL
const (
	SymbolCatalogPathFormat = "/v3/databases/%s/codes"
	DailyDataPathFormat     = "/v3/datasets/%s/%s/data.json"

	ParamAPIKey    = "api_key"
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
)

// HTTP API routes
const (
	APIBasePath     = "/api/v1"
	HealthEndpoint  = "/health"
	MetricsEndpoint = "/metrics"
)

// DefaultConfigLocations is searched in order when no config path is given
var DefaultConfigLocations = []string{
	"stockstats.yaml",
	"configs/stockstats.yaml",
}
