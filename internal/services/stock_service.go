package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockstats/internal/config"
	"stockstats/internal/dataprocessing"
	stockerrors "stockstats/internal/errors"
	"stockstats/internal/files"
	"stockstats/internal/infrastructure"
	"stockstats/internal/validation"
	"stockstats/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of the stock service spans
const TracerName = "stockstats.service"

// Statistic names, shared by the CLI sub-commands, HTTP routes and metrics
const (
	StatMonthAverages   = "month-averages"
	StatTopVarianceDays = "top-variance-days"
	StatBusyDays        = "busy-days"
	StatBiggestLoser    = "biggest-loser"
)

// Transport fetches provider resources. *httpclient.Client implements it.
type Transport interface {
	Get(ctx context.Context, rawURL string, params url.Values) ([]byte, http.Header, error)
	Download(ctx context.Context, rawURL string, params url.Values) (string, http.Header, error)
}

// StockServiceConfig holds what the service needs to address the provider
type StockServiceConfig struct {
	BaseURL  string
	Dataset  string
	APIKey   string
	Analyzer dataprocessing.AnalyzerConfig
}

// StockService retrieves provider data and computes statistics over it.
// Symbols are processed one after another in request order; the first
// failure aborts the whole query.
type StockService struct {
	transport  Transport
	files      *files.Manager
	cfg        StockServiceConfig
	normalizer *dataprocessing.Normalizer
	analyzer   *dataprocessing.Analyzer
	validator  *validation.QueryValidator
	metrics    *infrastructure.StockMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewStockService creates a stock service. metrics may be nil.
func NewStockService(transport Transport, fm *files.Manager, cfg StockServiceConfig, metrics *infrastructure.StockMetrics, logger *slog.Logger) *StockService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "stock_service"))

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Dataset == "" {
		cfg.Dataset = config.DefaultDataset
	}

	logger.Debug("StockService initialized",
		slog.String("base_url", cfg.BaseURL),
		slog.String("dataset", cfg.Dataset),
		slog.Bool("legacy_field_inversion", cfg.Analyzer.LegacyFieldInversion))

	return &StockService{
		transport:  transport,
		files:      fm,
		cfg:        cfg,
		normalizer: dataprocessing.NewNormalizer(domain.WikiFieldSet(), logger),
		analyzer:   dataprocessing.NewAnalyzer(logger, cfg.Analyzer),
		validator:  validation.NewQueryValidator(logger),
		metrics:    metrics,
		tracer:     otel.Tracer(TracerName),
		logger:     logger,
	}
}

// SymbolsURL returns the symbol catalog endpoint
func (s *StockService) SymbolsURL() string {
	return s.cfg.BaseURL + fmt.Sprintf(config.SymbolCatalogPathFormat, s.cfg.Dataset)
}

// DailyDataURL returns the daily data endpoint of a symbol
func (s *StockService) DailyDataURL(symbol string) string {
	return s.cfg.BaseURL + fmt.Sprintf(config.DailyDataPathFormat, s.cfg.Dataset, url.PathEscape(symbol))
}

// ListSymbols downloads the provider symbol catalog. The downloaded file is
// removed before returning on every path.
func (s *StockService) ListSymbols(ctx context.Context) (_ *domain.SymbolCatalog, err error) {
	ctx, span := s.tracer.Start(ctx, "stocks.list_symbols",
		trace.WithAttributes(attribute.String("provider.dataset", s.cfg.Dataset)))
	defer func() { s.endSpan(ctx, span, err, true) }()

	path, headers, err := s.transport.Download(ctx, s.SymbolsURL(), s.params())
	if err != nil {
		return nil, stockerrors.NewNetworkError(err)
	}
	defer s.removeDownload(ctx, path)

	payload := dataprocessing.DetectPayload(headers, path)
	span.SetAttributes(attribute.String("payload.kind", payload.Kind.String()))

	rows, err := dataprocessing.Decode(payload)
	if err != nil {
		return nil, err
	}

	catalog, err := dataprocessing.BuildCatalog(rows)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Symbol catalog retrieved",
		slog.String("payload", payload.Kind.String()),
		slog.Int("symbols", catalog.Len()))
	return catalog, nil
}

// TimeSeries retrieves the daily records of one symbol over rng
func (s *StockService) TimeSeries(ctx context.Context, symbol string, rng domain.DateRange) (_ domain.TimeSeries, err error) {
	ctx, span := s.tracer.Start(ctx, "stocks.time_series",
		trace.WithAttributes(
			attribute.String("stock.symbol", symbol),
			attribute.String("stock.start", rng.Start.String()),
			attribute.String("stock.end", rng.End.String()),
		))
	defer func() { s.endSpan(ctx, span, err, false) }()

	params := s.params()
	params.Set(config.ParamStartDate, rng.Start.String())
	params.Set(config.ParamEndDate, rng.End.String())

	body, _, err := s.transport.Get(ctx, s.DailyDataURL(symbol), params)
	if err != nil {
		return domain.TimeSeries{}, stockerrors.NewNetworkError(err).WithContext("symbol", symbol)
	}

	data, err := dataprocessing.ParseDatasetJSON(body)
	if err != nil {
		var se *stockerrors.StockError
		if stockerrors.As(err, &se) {
			se.WithContext("symbol", symbol)
		}
		return domain.TimeSeries{}, err
	}

	ts, err := s.normalizer.Normalize(symbol, rng, data.ColumnNames, data.Data)
	if err != nil {
		return domain.TimeSeries{}, err
	}

	span.SetAttributes(attribute.Int("stock.records", ts.Len()))
	s.logger.DebugContext(ctx, "Time series retrieved",
		slog.String("symbol", symbol),
		slog.Int("records", ts.Len()))
	return ts, nil
}

// MonthAverages computes monthly open/close averages for every symbol
func (s *StockService) MonthAverages(ctx context.Context, q domain.Query) (*domain.SymbolResults[domain.MonthlyAverages], error) {
	return analyzeEach(ctx, s, StatMonthAverages, q, func(ctx context.Context, ts domain.TimeSeries) (domain.MonthlyAverages, error) {
		return s.analyzer.MonthlyAverages(ctx, ts, q.Adjusted), nil
	})
}

// TopVarianceDays finds the widest high-low day of every symbol
func (s *StockService) TopVarianceDays(ctx context.Context, q domain.Query) (*domain.SymbolResults[domain.VarianceDay], error) {
	return analyzeEach(ctx, s, StatTopVarianceDays, q, func(ctx context.Context, ts domain.TimeSeries) (domain.VarianceDay, error) {
		return s.analyzer.TopVarianceDay(ctx, ts, q.Adjusted)
	})
}

// BusyDays finds the above-threshold volume days of every symbol
func (s *StockService) BusyDays(ctx context.Context, q domain.Query) (*domain.SymbolResults[domain.BusyDays], error) {
	return analyzeEach(ctx, s, StatBusyDays, q, func(ctx context.Context, ts domain.TimeSeries) (domain.BusyDays, error) {
		return s.analyzer.BusyDays(ctx, ts, q.Adjusted)
	})
}

// LosingDays counts the losing days of every symbol
func (s *StockService) LosingDays(ctx context.Context, q domain.Query) (*domain.SymbolResults[int], error) {
	return analyzeEach(ctx, s, StatBiggestLoser, q, func(ctx context.Context, ts domain.TimeSeries) (int, error) {
		return s.analyzer.LosingDayCount(ctx, ts, q.Adjusted), nil
	})
}

// BiggestLoser returns the symbols with the most losing days
func (s *StockService) BiggestLoser(ctx context.Context, q domain.Query) (domain.BiggestLoser, error) {
	counts, err := s.LosingDays(ctx, q)
	if err != nil {
		return domain.BiggestLoser{}, err
	}

	pairs := make([]domain.SymbolCount, 0, counts.Len())
	for _, sym := range counts.Symbols() {
		n, _ := counts.Get(sym)
		pairs = append(pairs, domain.SymbolCount{Symbol: sym, Count: n})
	}
	return dataprocessing.BiggestLoser(pairs)
}

// analyzeEach validates q, then fetches and analyzes each symbol in order
func analyzeEach[T any](ctx context.Context, s *StockService, statistic string, q domain.Query,
	analyze func(context.Context, domain.TimeSeries) (T, error)) (_ *domain.SymbolResults[T], err error) {

	ctx, span := s.tracer.Start(ctx, "stocks."+statistic,
		trace.WithAttributes(
			attribute.StringSlice("stock.symbols", q.Symbols),
			attribute.Bool("stock.adjusted", q.Adjusted),
		))
	defer func() { s.endSpan(ctx, span, err, true) }()

	if err := s.validator.ValidateQuery(q); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Running analysis",
		slog.String("statistic", statistic),
		slog.Any("symbols", q.Symbols),
		slog.String("start", q.Range.Start.String()),
		slog.String("end", q.Range.End.String()),
		slog.Bool("adjusted", q.Adjusted))

	results := domain.NewSymbolResults[T]()
	for _, symbol := range q.Symbols {
		ts, err := s.TimeSeries(ctx, symbol, q.Range)
		if err != nil {
			return nil, err
		}

		value, err := analyze(ctx, ts)
		if err != nil {
			return nil, err
		}
		results.Set(symbol, value)
		s.metrics.RecordSymbol(ctx, statistic)
	}
	return results, nil
}

func (s *StockService) params() url.Values {
	return url.Values{config.ParamAPIKey: {s.cfg.APIKey}}
}

func (s *StockService) removeDownload(ctx context.Context, path string) {
	if s.files == nil || path == "" {
		return
	}
	if err := s.files.Remove(path); err != nil {
		s.logger.WarnContext(ctx, "Failed to remove download",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// endSpan records err on span and ends it. Only top-level operations count
// the error, so a failure is counted once however deep it started.
func (s *StockService) endSpan(ctx context.Context, span trace.Span, err error, count bool) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if t, ok := stockerrors.TypeOf(err); ok {
			span.SetAttributes(attribute.String("error.type", string(t)))
			if count {
				s.metrics.RecordStockError(ctx, string(t))
			}
		}
	}
	span.End()
}
