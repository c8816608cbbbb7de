package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StockMetrics holds the application instruments
type StockMetrics struct {
	ProviderRequests        metric.Int64Counter
	ProviderRequestDuration metric.Float64Histogram
	ProviderBytes           metric.Int64Counter
	SymbolsProcessed        metric.Int64Counter
	StockErrors             metric.Int64Counter
	HTTPRequests            metric.Int64Counter
	HTTPRequestDuration     metric.Float64Histogram
}

// NewStockMetrics creates the application instruments on meter
func NewStockMetrics(meter metric.Meter) (*StockMetrics, error) {
	m := &StockMetrics{}
	var err error

	if m.ProviderRequests, err = meter.Int64Counter(
		"provider_requests",
		metric.WithDescription("Requests sent to the market data provider"),
	); err != nil {
		return nil, err
	}

	if m.ProviderRequestDuration, err = meter.Float64Histogram(
		"provider_request_duration",
		metric.WithDescription("Provider request latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.ProviderBytes, err = meter.Int64Counter(
		"provider_received",
		metric.WithDescription("Bytes received from the provider"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	if m.SymbolsProcessed, err = meter.Int64Counter(
		"symbols_processed",
		metric.WithDescription("Symbols analysed, by statistic"),
	); err != nil {
		return nil, err
	}

	if m.StockErrors, err = meter.Int64Counter(
		"stock_errors",
		metric.WithDescription("Failed queries, by error type"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequests, err = meter.Int64Counter(
		"http_requests",
		metric.WithDescription("HTTP API requests served"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP API request latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordProviderRequest records one provider round trip
func (m *StockMetrics) RecordProviderRequest(ctx context.Context, endpoint string, status int, bytes int64, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	)
	m.ProviderRequests.Add(ctx, 1, attrs)
	m.ProviderRequestDuration.Record(ctx, duration.Seconds(), attrs)
	if bytes > 0 {
		m.ProviderBytes.Add(ctx, bytes, metric.WithAttributes(attribute.String("endpoint", endpoint)))
	}
}

// RecordSymbol counts one symbol analysed for a statistic
func (m *StockMetrics) RecordSymbol(ctx context.Context, statistic string) {
	if m == nil {
		return
	}
	m.SymbolsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("statistic", statistic)))
}

// RecordStockError counts a failed query by error type
func (m *StockMetrics) RecordStockError(ctx context.Context, errType string) {
	if m == nil {
		return
	}
	m.StockErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("type", errType)))
}

// RecordHTTPRequest records one served API request
func (m *StockMetrics) RecordHTTPRequest(ctx context.Context, route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("method", method),
		attribute.Int("status", status),
	)
	m.HTTPRequests.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}
