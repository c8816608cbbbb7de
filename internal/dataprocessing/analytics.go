package dataprocessing

import (
	"context"
	"log/slog"

	stockerrors "stockstats/internal/errors"
	"stockstats/pkg/contracts/domain"
)

// DefaultBusyThreshold is the multiple of the mean volume a busy day must exceed
const DefaultBusyThreshold = 1.10

// AnalyzerConfig holds configuration options for the Analyzer.
type AnalyzerConfig struct {
	// LegacyFieldInversion makes variance and busy-day calculations read the
	// raw fields when adjusted values are requested, and the adjusted fields
	// otherwise. Existing reports were produced this way.
	LegacyFieldInversion bool
	BusyThreshold        float64
}

// DefaultAnalyzerConfig returns the configuration matching existing reports
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		LegacyFieldInversion: true,
		BusyThreshold:        DefaultBusyThreshold,
	}
}

// Analyzer computes per-symbol statistics over a time series
type Analyzer struct {
	logger *slog.Logger
	config AnalyzerConfig
}

// NewAnalyzer creates a new analyzer with the given configuration
func NewAnalyzer(logger *slog.Logger, config AnalyzerConfig) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BusyThreshold <= 0 {
		config.BusyThreshold = DefaultBusyThreshold
	}
	return &Analyzer{logger: logger, config: config}
}

// Config returns the analyzer configuration
func (a *Analyzer) Config() AnalyzerConfig {
	return a.config
}

// spreadFields picks the field variant used by variance and busy days
func (a *Analyzer) spreadFields(adjusted bool) domain.PriceFields {
	if a.config.LegacyFieldInversion {
		return domain.Fields(!adjusted)
	}
	return domain.Fields(adjusted)
}

// MonthlyAverages returns the mean open and close of every month that has records
func (a *Analyzer) MonthlyAverages(ctx context.Context, ts domain.TimeSeries, adjusted bool) domain.MonthlyAverages {
	fields := domain.Fields(adjusted)

	type sums struct {
		open, close float64
		count       int
	}
	groups := make(map[domain.MonthKey]*sums)
	for _, rec := range ts.Records {
		key := rec.Date.MonthKey()
		g, ok := groups[key]
		if !ok {
			g = &sums{}
			groups[key] = g
		}
		g.open += rec.Value(fields.Open)
		g.close += rec.Value(fields.Close)
		g.count++
	}

	result := make(domain.MonthlyAverages, len(groups))
	for key, g := range groups {
		n := float64(g.count)
		result[key] = domain.MonthlyAverage{
			AverageOpen:  g.open / n,
			AverageClose: g.close / n,
		}
	}

	a.logger.DebugContext(ctx, "computed monthly averages",
		slog.String("symbol", ts.Symbol),
		slog.Int("months", len(result)))
	return result
}

// TopVarianceDay returns the day with the widest high-low spread. On a tie the
// earliest record in series order wins.
func (a *Analyzer) TopVarianceDay(ctx context.Context, ts domain.TimeSeries, adjusted bool) (domain.VarianceDay, error) {
	if ts.IsEmpty() {
		return domain.VarianceDay{}, stockerrors.NewDataError(stockerrors.MsgEmptyTimeSeries).
			WithContext("symbol", ts.Symbol)
	}

	fields := a.spreadFields(adjusted)
	best := domain.VarianceDay{
		Date:     ts.Records[0].Date,
		Variance: ts.Records[0].Value(fields.High) - ts.Records[0].Value(fields.Low),
	}
	for _, rec := range ts.Records[1:] {
		if v := rec.Value(fields.High) - rec.Value(fields.Low); v > best.Variance {
			best = domain.VarianceDay{Date: rec.Date, Variance: v}
		}
	}

	a.logger.DebugContext(ctx, "computed top variance day",
		slog.String("symbol", ts.Symbol),
		slog.String("date", best.Date.String()),
		slog.Float64("variance", best.Variance))
	return best, nil
}

// BusyDays returns the mean volume and every day whose volume is strictly
// above mean * BusyThreshold.
func (a *Analyzer) BusyDays(ctx context.Context, ts domain.TimeSeries, adjusted bool) (domain.BusyDays, error) {
	if ts.IsEmpty() {
		return domain.BusyDays{}, stockerrors.NewDataError(stockerrors.MsgEmptyTimeSeries).
			WithContext("symbol", ts.Symbol)
	}

	volume := a.spreadFields(adjusted).Volume

	var total float64
	for _, rec := range ts.Records {
		total += rec.Value(volume)
	}
	mean := total / float64(ts.Len())
	threshold := mean * a.config.BusyThreshold

	days := make(map[domain.Date]float64)
	for _, rec := range ts.Records {
		if v := rec.Value(volume); v > threshold {
			days[rec.Date] = v
		}
	}

	a.logger.DebugContext(ctx, "computed busy days",
		slog.String("symbol", ts.Symbol),
		slog.Float64("average_volume", mean),
		slog.Int("busy_days", len(days)))
	return domain.BusyDays{AverageVolume: mean, Days: days}, nil
}

// LosingDayCount counts the days that closed strictly below their open
func (a *Analyzer) LosingDayCount(ctx context.Context, ts domain.TimeSeries, adjusted bool) int {
	fields := domain.Fields(adjusted)

	count := 0
	for _, rec := range ts.Records {
		if rec.Value(fields.Close) < rec.Value(fields.Open) {
			count++
		}
	}

	a.logger.DebugContext(ctx, "counted losing days",
		slog.String("symbol", ts.Symbol),
		slog.Int("losing_days", count))
	return count
}
