package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Provider  ProviderConfig  `yaml:"provider" envconfig:"PROVIDER"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// ProviderConfig describes the remote market data provider
type ProviderConfig struct {
	BaseURL   string          `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Dataset   string          `yaml:"dataset" envconfig:"DATASET" validate:"required,alphanum"`
	Timeout   time.Duration   `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	UserAgent string          `yaml:"user_agent" envconfig:"USER_AGENT"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// AnalysisConfig tunes the statistics engine
type AnalysisConfig struct {
	// LegacyFieldInversion makes variance and busy-day statistics read the
	// opposite price variant from the one requested.
	LegacyFieldInversion bool    `yaml:"legacy_field_inversion" envconfig:"LEGACY_FIELD_INVERSION"`
	BusyThreshold        float64 `yaml:"busy_threshold" envconfig:"BUSY_THRESHOLD" validate:"gt=0"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string          `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// IncludeStack adds goroutine stacks to 5xx problem responses
	IncludeStack bool `yaml:"include_stack" envconfig:"INCLUDE_STACK"`
}

// RateLimitConfig contains token bucket settings
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output    string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath  string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
	AddSource bool   `yaml:"add_source" envconfig:"ADD_SOURCE"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Environment     string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled  bool    `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter   string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio     float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	MetricsEnabled  bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	MetricsTextfile string  `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// PathsConfig contains file system locations
type PathsConfig struct {
	// TempDir holds provider downloads while they are decoded; empty means the OS default.
	TempDir string `yaml:"temp_dir" envconfig:"TEMP_DIR"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path searches the
// default locations; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// fields carry no default tags, so only variables that are set override
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// TempDir returns the directory used for provider downloads
func (c *Config) TempDir() string {
	if c.Paths.TempDir == "" {
		return os.TempDir()
	}
	return filepath.Clean(c.Paths.TempDir)
}

// getConfigFilePath returns the first config file found in the default locations
func getConfigFilePath() string {
	for _, location := range DefaultConfigLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:   DefaultProviderBaseURL,
			Dataset:   DefaultDataset,
			Timeout:   DefaultHTTPTimeout,
			UserAgent: AppName + "/" + AppVersion,
			RateLimit: RateLimitConfig{
				Enabled: false,
				RPS:     5,
				Burst:   1,
			},
		},
		Analysis: AnalysisConfig{
			LegacyFieldInversion: true,
			BusyThreshold:        DefaultBusyThreshold,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: "logs/stockstats.log",
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TracingEnabled: false,
			TraceExporter:  "stdout",
			SampleRatio:    1.0,
			MetricsEnabled: true,
		},
	}
}
