package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	apierrors "stockstats/internal/errors"
	"stockstats/internal/infrastructure"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// securityHeaders are set on every response
var securityHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
	"Cache-Control":          "no-store",
}

// RequestID keeps an incoming X-Request-ID or mints a UUID, echoes it on the
// response and stores it under chi's key so middleware.GetReqID works. Log
// lines use it as trace_id unless a span is already active.
// Must run first.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		traceID := id
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			traceID = sc.TraceID().String()
		}

		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(infrastructure.WithTraceID(ctx, traceID)))
	})
}

// GetRequestID returns the request ID of ctx, or its trace ID outside a request
func GetRequestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return infrastructure.GetTraceID(ctx)
}

// StructuredLogger logs each request at debug on arrival and once more on
// completion; 5xx completions log at warn.
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			reqAttrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			}

			logger.LogAttrs(ctx, slog.LevelDebug, "request started", append(reqAttrs,
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()))...)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, "request completed", append(reqAttrs,
				slog.String("query", r.URL.RawQuery),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)))...)
		})
	}
}

// RateLimiter is a process-wide token bucket for the API
type RateLimiter struct {
	limiter    *rate.Limiter
	retryAfter string
	logger     *slog.Logger
}

// NewRateLimiter allows rps requests per second with the given burst
func NewRateLimiter(rps float64, burst int, logger *slog.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	// Retry-After is whole seconds until one token refills
	wait := 1
	if rps > 0 && rps < 1 {
		wait = int(math.Round(1 / rps))
	}
	return &RateLimiter{
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		retryAfter: strconv.Itoa(wait),
		logger:     logger,
	}
}

// Handler answers requests over the limit with 429 problem details
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		rl.logger.WarnContext(ctx, "rate limit exceeded",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		w.Header().Set("Retry-After", rl.retryAfter)
		problem := apierrors.NewProblemDetails(http.StatusTooManyRequests, apierrors.TypeRateLimit,
			"Too Many Requests", "Rate limit exceeded, retry later", r.URL.Path).
			WithExtension("trace_id", GetRequestID(ctx))
		if err := render.Render(w, r, problem); err != nil {
			rl.logger.WarnContext(ctx, "failed to render problem", slog.String("error", err.Error()))
		}
	})
}

// Timeout puts a deadline on the request context. Provider calls fail once
// it passes and the error handler answers 504.
func Timeout(timeout time.Duration, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if ctx.Err() == context.DeadlineExceeded {
				logger.WarnContext(ctx, "request timeout",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Duration("timeout", timeout))
			}
		})
	}
}

// SecurityHeaders sets the static response hardening headers, plus HSTS on TLS
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range securityHeaders {
			h.Set(k, v)
		}
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// RealIP rewrites RemoteAddr from X-Real-IP / X-Forwarded-For
var RealIP = middleware.RealIP
