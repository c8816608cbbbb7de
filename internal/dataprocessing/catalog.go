package dataprocessing

import (
	"fmt"
	"strings"

	stockerrors "stockstats/internal/errors"
	"stockstats/pkg/contracts/domain"
)

// BuildCatalog turns decoded catalog rows of (DATASET/SYMBOL, description)
// into a catalog keyed by the bare symbol, in row order. A leading
// "code,name" header row is skipped.
func BuildCatalog(rows [][]string) (*domain.SymbolCatalog, error) {
	catalog := domain.NewSymbolCatalog()

	for i, row := range rows {
		if i == 0 && isCatalogHeader(row) {
			continue
		}
		if len(row) != 2 {
			return nil, stockerrors.NewParsingError(stockerrors.MsgCSVParsing,
				fmt.Errorf("row %d: expected 2 fields, got %d", i+1, len(row)))
		}

		_, symbol, ok := strings.Cut(row[0], "/")
		if !ok || symbol == "" {
			return nil, stockerrors.NewParsingError(stockerrors.MsgCSVParsing,
				fmt.Errorf("row %d: %q is not a qualified symbol", i+1, row[0]))
		}

		// duplicates keep their first position, value is overwritten
		catalog.Add(symbol, row[1])
	}

	return catalog, nil
}

func isCatalogHeader(row []string) bool {
	return len(row) == 2 &&
		strings.EqualFold(strings.TrimSpace(row[0]), "code") &&
		strings.EqualFold(strings.TrimSpace(row[1]), "name")
}
