package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"stockstats/internal/files"
	"stockstats/internal/infrastructure"
)

// maxErrorBody caps how much of a failed response is kept for the error message
const maxErrorBody = 512

// redactedParams are masked wherever a URL is logged or returned in an error
var redactedParams = []string{"api_key"}

// Client performs GET requests against the data provider. It never retries;
// every failure is returned as a *TransportError.
type Client struct {
	http      *http.Client
	files     *files.Manager
	logger    *slog.Logger
	limiter   *rate.Limiter
	metrics   *infrastructure.StockMetrics
	userAgent string
}

// Option configures a Client
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimit makes requests wait for a token bucket slot
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithMetrics records provider requests on m
func WithMetrics(m *infrastructure.StockMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the underlying client, mainly for tests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTracing wraps the transport with OpenTelemetry instrumentation
func WithTracing() Option {
	return func(c *Client) {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.http.Transport = otelhttp.NewTransport(base,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "provider " + r.Method
			}))
	}
}

// New creates a client; downloads are written to files owned by fm
func New(timeout time.Duration, fm *files.Manager, logger *slog.Logger, opts ...Option) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		http:   &http.Client{Timeout: timeout, Transport: transport},
		files:  fm,
		logger: logger.With(slog.String("component", "provider_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildURL merges params into rawURL's query. Keys are encoded in sorted
// order so the same request always produces the same URL.
func BuildURL(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Get fetches rawURL and returns the whole body with the response headers
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, http.Header, error) {
	start := time.Now()
	resp, fullURL, err := c.do(ctx, "get", rawURL, params)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err == nil && resp.ContentLength >= 0 && int64(len(body)) != resp.ContentLength {
		err = io.ErrUnexpectedEOF
	}
	c.metrics.RecordProviderRequest(ctx, "get", resp.StatusCode, int64(len(body)), time.Since(start))
	if err != nil {
		return nil, nil, &TransportError{Op: "get", URL: fullURL, StatusCode: resp.StatusCode, Err: err}
	}
	return body, resp.Header, nil
}

// Download streams rawURL into a temp file and returns its path. The file
// belongs to the client's files.Manager; the caller removes it when done.
func (c *Client) Download(ctx context.Context, rawURL string, params url.Values) (string, http.Header, error) {
	if c.files == nil {
		return "", nil, &TransportError{Op: "download", URL: redact(rawURL), Err: errors.New("no file manager configured")}
	}

	start := time.Now()
	resp, fullURL, err := c.do(ctx, "download", rawURL, params)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	f, err := c.files.CreateTemp("provider-*.download")
	if err != nil {
		return "", nil, &TransportError{Op: "download", URL: fullURL, StatusCode: resp.StatusCode, Err: err}
	}
	path := f.Name()

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr == nil && resp.ContentLength >= 0 && n != resp.ContentLength {
		copyErr = io.ErrUnexpectedEOF
	}
	c.metrics.RecordProviderRequest(ctx, "download", resp.StatusCode, n, time.Since(start))
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = c.files.Remove(path)
		return "", nil, &TransportError{Op: "download", URL: fullURL, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.DebugContext(ctx, "Downloaded provider payload",
		slog.String("path", path),
		slog.Int64("bytes", n),
		slog.String("content_type", resp.Header.Get("Content-Type")))
	return path, resp.Header, nil
}

// do sends the request and rejects non-2xx answers, recording the failures.
// On success the caller owns resp.Body and records the request.
func (c *Client) do(ctx context.Context, op, rawURL string, params url.Values) (*http.Response, string, error) {
	fullURL, err := BuildURL(rawURL, params)
	if err != nil {
		return nil, redact(rawURL), &TransportError{Op: op, URL: redact(rawURL), Err: err}
	}
	safeURL := redact(fullURL)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, safeURL, &TransportError{Op: op, URL: safeURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, safeURL, &TransportError{Op: op, URL: safeURL, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.WarnContext(ctx, "Provider request failed",
			slog.String("op", op),
			slog.String("url", safeURL),
			slog.String("error", unwrapURLError(err).Error()))
		c.metrics.RecordProviderRequest(ctx, op, 0, 0, duration)
		return nil, safeURL, &TransportError{Op: op, URL: safeURL, Err: unwrapURLError(err)}
	}

	c.logger.DebugContext(ctx, "Provider responded",
		slog.String("op", op),
		slog.String("url", safeURL),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		c.metrics.RecordProviderRequest(ctx, op, resp.StatusCode, 0, duration)
		return nil, safeURL, &TransportError{
			Op:         op,
			URL:        safeURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s: %s", resp.Status, string(snippet)),
		}
	}
	return resp, safeURL, nil
}

// redact masks secret query parameters in rawURL
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	changed := false
	for _, k := range redactedParams {
		if q.Has(k) {
			q.Set(k, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// unwrapURLError drops the *url.Error layer, which embeds the unredacted URL
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
