package validation

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	stockerrors "stockstats/internal/errors"
	"stockstats/pkg/contracts/domain"
)

// maxTickerLength bounds a bare provider symbol
const maxTickerLength = 20

// QueryValidator checks analysis queries before any request reaches the provider
type QueryValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewQueryValidator creates a validator with the ticker rule registered
func NewQueryValidator(logger *slog.Logger) *QueryValidator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	_ = v.RegisterValidation("ticker", isValidTicker)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &QueryValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "query_validator")),
	}
}

// ValidateQuery rejects a query with no symbols, a malformed symbol or an inverted range
func (v *QueryValidator) ValidateQuery(q domain.Query) error {
	if len(q.Symbols) == 0 {
		return stockerrors.NewValidationError(stockerrors.MsgNoSymbols)
	}

	if err := v.validator.Struct(q); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return stockerrors.NewStockError(stockerrors.ErrTypeValidation, "invalid query", err)
		}

		messages := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			messages = append(messages, formatFieldError(fe))
		}
		v.logger.Debug("Query rejected", slog.Any("errors", messages))
		return stockerrors.NewValidationError(strings.Join(messages, "; ")).
			WithContext("symbols", q.Symbols)
	}

	if !q.Range.Valid() {
		return stockerrors.NewValidationError(stockerrors.MsgInvalidDateRange).
			WithContext("start", q.Range.Start.String()).
			WithContext("end", q.Range.End.String())
	}
	return nil
}

// ParseMonthRange turns YYYY-MM start and end months into an inclusive date
// range ending on the last day of the end month.
func ParseMonthRange(start, end string) (domain.DateRange, error) {
	from, err := domain.ParseMonth(start)
	if err != nil {
		return domain.DateRange{}, stockerrors.NewStockError(stockerrors.ErrTypeValidation,
			fmt.Sprintf("invalid start month %q, expected YYYY-MM", start), err)
	}
	to, err := domain.ParseMonth(end)
	if err != nil {
		return domain.DateRange{}, stockerrors.NewStockError(stockerrors.ErrTypeValidation,
			fmt.Sprintf("invalid end month %q, expected YYYY-MM", end), err)
	}

	rng := domain.MonthRange(from, to)
	if !rng.Valid() {
		return domain.DateRange{}, stockerrors.NewValidationError(stockerrors.MsgInvalidDateRange).
			WithContext("start", start).
			WithContext("end", end)
	}
	return rng, nil
}

// NormalizeSymbols upper-cases and trims symbols, dropping empty entries
func NormalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "ticker":
		return fmt.Sprintf("%q is not a valid ticker symbol", fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// isValidTicker validates ticker symbol format
func isValidTicker(fl validator.FieldLevel) bool {
	ticker := fl.Field().String()
	if len(ticker) < 1 || len(ticker) > maxTickerLength {
		return false
	}
	// letters, numbers, dots, and the underscore/hyphen share-class separators
	for _, ch := range ticker {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '.' || ch == '_' || ch == '-') {
			return false
		}
	}
	return true
}
