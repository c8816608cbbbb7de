package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"stockstats/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	provider  ProviderInfo
	startTime time.Time
	logger    *slog.Logger
}

// ProviderInfo describes the upstream data provider in health responses
type ProviderInfo struct {
	BaseURL    string `json:"base_url"`
	Dataset    string `json:"dataset"`
	KeyPresent bool   `json:"key_present"`
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Provider  *ProviderInfo          `json:"provider,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, provider ProviderInfo, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("HealthService initialized",
		slog.String("version", version),
		slog.String("dataset", provider.Dataset))

	return &HealthService{
		version:   version,
		provider:  provider,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status. The service is degraded when
// no provider key is configured, since every data request would be refused.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	provider := hs.provider
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Provider:  &provider,
	}
	if !provider.KeyPresent {
		status.Status = "degraded"
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns build information for the running binary
func (hs *HealthService) Version() contracts.VersionInfo {
	info := contracts.GetVersionInfo()
	info.Version = hs.version
	return info
}
