// Package services implements the business logic layer of stockstats.
// It sits between the entry points (CLI sub-commands and HTTP handlers) and
// the provider transport, so both surfaces run the same retrieval and
// analysis code.
//
// # Stock Service
//
// StockService retrieves provider data and computes statistics:
//
//	svc := services.NewStockService(client, fileManager, services.StockServiceConfig{
//		BaseURL:  cfg.Provider.BaseURL,
//		Dataset:  cfg.Provider.Dataset,
//		APIKey:   apiKey,
//		Analyzer: dataprocessing.DefaultAnalyzerConfig(),
//	}, metrics, logger)
//
//	catalog, err := svc.ListSymbols(ctx)
//	averages, err := svc.MonthAverages(ctx, domain.Query{
//		Symbols: []string{"GOOGL", "MSFT"},
//		Range:   rng,
//	})
//
// Queries are validated before any request is sent. Symbols are fetched
// and analyzed one at a time in request order, and the first failure
// aborts the query without partial results. Every failure is a
// *errors.StockError whose Type tells network, archive, parsing,
// validation and data problems apart.
//
// # Observability
//
// Each operation runs inside an OpenTelemetry span. Processed symbols and
// failures are counted through infrastructure.StockMetrics when metrics are
// enabled.
//
// # Health Service
//
// HealthService backs the health, liveness and version endpoints.
package services
