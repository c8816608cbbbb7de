package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Problem types following RFC 7807
const (
	TypeValidation    = "/errors/validation"
	TypeNotFound      = "/errors/not-found"
	TypeRateLimit     = "/errors/rate-limit"
	TypeInternal      = "/errors/internal"
	TypeServiceDown   = "/errors/service-unavailable"
	TypeTimeout       = "/errors/timeout"
	TypeUpstream      = "/errors/provider/unreachable"
	TypeDataNotFound  = "/errors/data/not-found"
	TypeDataCorrupted = "/errors/data/corrupted"
)

// apiProblemTypes maps APIError codes to problem types; unknown codes are internal
var apiProblemTypes = map[string]string{
	"INVALID_REQUEST":     TypeValidation,
	"INVALID_PARAMETER":   TypeValidation,
	"MISSING_PARAMETER":   TypeValidation,
	"VALIDATION_FAILED":   TypeValidation,
	"NOT_FOUND":           TypeNotFound,
	"RATE_LIMIT_EXCEEDED": TypeRateLimit,
	"SERVICE_UNAVAILABLE": TypeServiceDown,
}

// ErrorHandler renders every API failure as problem details
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates an error handler. includeStack adds goroutine
// stacks to 5xx responses and should stay off outside development.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and answers with its problem details.
// Client errors log at warn, everything else at error.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	problem := h.ErrorToProblem(err, r)

	level := slog.LevelError
	if problem.Status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	}
	if t, ok := TypeOf(err); ok {
		attrs = append(attrs, slog.String("error_type", string(t)))
	}
	h.logger.LogAttrs(r.Context(), level, "request failed", attrs...)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", string(debug.Stack()))
	}
	h.respond(w, r, problem)
}

// ErrorToProblem converts err to problem details. Deadlines win over the
// error kind, so a provider call cut short by the request timeout is a 504.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", r.URL.Path)
	}

	if problem, ok := MapStockError(err, r.URL.Path); ok {
		return problem
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorToProblem(apiErr, r.URL.Path)
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred while processing your request", r.URL.Path)
}

func apiErrorToProblem(apiErr *APIError, instance string) *ProblemDetails {
	problemType, ok := apiProblemTypes[apiErr.ErrorCode]
	if !ok {
		problemType = TypeInternal
	}

	problem := NewProblemDetails(apiErr.StatusCode, problemType, http.StatusText(apiErr.StatusCode),
		apiErr.Message, instance).
		WithExtension("error_code", apiErr.ErrorCode)
	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic answers a recovered panic with a 500
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	stack := string(debug.Stack())
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", stack))

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred", r.URL.Path)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered))
		problem.WithExtension("stack", stack)
	}
	h.respond(w, r, problem)
}

// NotFound answers requests no route matched
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path))
}

// MethodNotAllowed answers a known route hit with the wrong method
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeInternal, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path))
}

// Recoverer turns handler panics into problem details. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func (h *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// respond stamps the request ID on problem and renders it
func (h *ErrorHandler) respond(w http.ResponseWriter, r *http.Request, problem *ProblemDetails) {
	problem.WithExtension("trace_id", middleware.GetReqID(r.Context()))
	if err := render.Render(w, r, problem); err != nil {
		h.logger.WarnContext(r.Context(), "failed to render problem", slog.String("error", err.Error()))
	}
}
