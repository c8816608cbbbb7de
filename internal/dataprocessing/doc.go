// Package dataprocessing turns provider payloads into statistics.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Decoder: reads a downloaded CSV file, plain or zipped, into rows
// 2. Catalog builder: turns (DATASET/SYMBOL, description) rows into a SymbolCatalog
// 3. Normalizer: turns data.json columns and rows into a TimeSeries
// 4. Analyzer and reducers: per-symbol statistics and the cross-symbol biggest loser
//
// # Data Flow
//
//	codes download → DetectPayload → Decode → BuildCatalog → SymbolCatalog
//	data.json      → ParseDatasetJSON → Normalizer → TimeSeries → Analyzer
//
// # Error Handling
//
// Every failure is a *errors.StockError with the cause chained:
//
//   - archive problems are ARCHIVE ("Error extracting ZIP data", "unexpected multi-file archive")
//   - malformed CSV or JSON is PARSING ("Error parsing CSV", "Data encoding error")
//   - statistics over an empty series are DATA
//
// # Field Variants
//
// Each statistic takes an adjusted flag selecting raw or split/dividend
// adjusted prices. With AnalyzerConfig.LegacyFieldInversion set, variance and
// busy days read the opposite variant to the one requested, which is how
// existing reports were computed.
package dataprocessing
