package http

import (
	"context"

	"stockstats/pkg/contracts/domain"
)

// StockServiceInterface defines the stock operations the API exposes.
// *services.StockService implements it.
type StockServiceInterface interface {
	ListSymbols(ctx context.Context) (*domain.SymbolCatalog, error)
	MonthAverages(ctx context.Context, q domain.Query) (*domain.SymbolResults[domain.MonthlyAverages], error)
	TopVarianceDays(ctx context.Context, q domain.Query) (*domain.SymbolResults[domain.VarianceDay], error)
	BusyDays(ctx context.Context, q domain.Query) (*domain.SymbolResults[domain.BusyDays], error)
	BiggestLoser(ctx context.Context, q domain.Query) (domain.BiggestLoser, error)
}
