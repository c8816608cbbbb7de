package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "stockstats/internal/errors"
	"stockstats/internal/services"
	"stockstats/internal/validation"
	"stockstats/pkg/contracts/domain"
)

// Query parameters of the stats endpoints
const (
	ParamStart    = "start"
	ParamEnd      = "end"
	ParamSymbols  = "symbols"
	ParamAdjusted = "adjusted"
)

// statAliases maps accepted route names to statistics
var statAliases = map[string]string{
	services.StatMonthAverages:   services.StatMonthAverages,
	services.StatTopVarianceDays: services.StatTopVarianceDays,
	"best-days":                  services.StatTopVarianceDays,
	services.StatBusyDays:        services.StatBusyDays,
	services.StatBiggestLoser:    services.StatBiggestLoser,
}

type queryCtxKey struct{}

// StockHandler serves the symbol catalog and statistics
type StockHandler struct {
	service      StockServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewStockHandler creates a new stock handler with RFC 7807 error handling
func NewStockHandler(service StockServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *StockHandler {
	return &StockHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "stock_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the stock routes
func (h *StockHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/symbols", h.ListSymbols)
	r.Route("/stats/{kind}", func(r chi.Router) {
		r.Use(h.QueryCtx)
		r.Get("/", h.Stats)
	})
	return r
}

// QueryCtx parses the stats query parameters into a domain.Query
func (h *StockHandler) QueryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), queryCtxKey{}, q)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ListSymbols handles GET /api/v1/symbols
func (h *StockHandler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.ListSymbols(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, catalog)
}

// Stats handles GET /api/v1/stats/{kind}
func (h *StockHandler) Stats(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	stat, ok := statAliases[kind]
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("%s: %s", apierrors.MsgInvalidStatistics, kind), validStatistics()))
		return
	}

	q, _ := r.Context().Value(queryCtxKey{}).(domain.Query)

	h.logger.DebugContext(r.Context(), "Stats requested",
		slog.String("statistic", stat),
		slog.Any("symbols", q.Symbols))

	var (
		result interface{}
		err    error
	)
	switch stat {
	case services.StatMonthAverages:
		result, err = h.service.MonthAverages(r.Context(), q)
	case services.StatTopVarianceDays:
		result, err = h.service.TopVarianceDays(r.Context(), q)
	case services.StatBusyDays:
		result, err = h.service.BusyDays(r.Context(), q)
	case services.StatBiggestLoser:
		result, err = h.service.BiggestLoser(r.Context(), q)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// parseQuery reads start, end, symbols and adjusted from the URL query
func parseQuery(r *http.Request) (domain.Query, error) {
	values := r.URL.Query()

	var missing []apierrors.ValidationError
	for _, name := range []string{ParamStart, ParamEnd, ParamSymbols} {
		if strings.TrimSpace(values.Get(name)) == "" {
			missing = append(missing, apierrors.ValidationError{Field: name, Message: "is required"})
		}
	}
	if len(missing) > 0 {
		return domain.Query{}, apierrors.NewValidationErrors(missing)
	}

	rng, err := validation.ParseMonthRange(values.Get(ParamStart), values.Get(ParamEnd))
	if err != nil {
		return domain.Query{}, err
	}

	var adjusted bool
	if raw := values.Get(ParamAdjusted); raw != "" {
		if adjusted, err = strconv.ParseBool(raw); err != nil {
			return domain.Query{}, apierrors.InvalidParameter(ParamAdjusted, err)
		}
	}

	return domain.Query{
		Symbols:  validation.NormalizeSymbols(strings.Split(values.Get(ParamSymbols), ",")),
		Range:    rng,
		Adjusted: adjusted,
	}, nil
}

func validStatistics() []string {
	return []string{
		services.StatMonthAverages,
		services.StatTopVarianceDays,
		services.StatBusyDays,
		services.StatBiggestLoser,
	}
}
