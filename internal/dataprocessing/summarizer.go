package dataprocessing

import (
	stockerrors "stockstats/internal/errors"
	"stockstats/pkg/contracts/domain"
)

// BiggestLoser picks every symbol with the highest losing-day count, in input order
func BiggestLoser(counts []domain.SymbolCount) (domain.BiggestLoser, error) {
	if len(counts) == 0 {
		return domain.BiggestLoser{}, stockerrors.NewValidationError(stockerrors.MsgNoSymbols)
	}

	top := counts[0].Count
	for _, c := range counts[1:] {
		if c.Count > top {
			top = c.Count
		}
	}

	result := domain.BiggestLoser{Days: top}
	for _, c := range counts {
		if c.Count == top {
			result.Symbols = append(result.Symbols, c.Symbol)
		}
	}
	return result, nil
}
