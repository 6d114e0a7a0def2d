// Package client provides the fail-soft stats API HTTP client: timed GETs,
// exponential backoff over a bounded number of attempts, JSON validation and
// an optional Redis response cache.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pitchsplits/pkg/cache"
	"github.com/Sternrassler/pitchsplits/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for fetch operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchsplits_fetch_requests_total",
		Help: "Total stats API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pitchsplits_fetch_request_duration_seconds",
		Help:    "Stats API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchsplits_fetch_errors_total",
		Help: "Total failed fetch attempts by class",
	}, []string{"class"})

	degradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchsplits_fetch_degraded_total",
		Help: "Fetches that degraded to an empty result, by endpoint",
	}, []string{"endpoint"})
)

// maxBodyBytes bounds a single response; a full season schedule with venue
// hydration is a few MiB.
const maxBodyBytes = 64 << 20

// Client is the shared stats API client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	retry      RetryConfig
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// User-Agent header sent with every request.
	UserAgent string

	// Timeout bounds a single attempt (connect, headers and body).
	Timeout time.Duration

	// Retry
	MaxRetries     int // total attempts per fetch
	InitialBackoff time.Duration

	// MaxConnsPerHost sizes the idle pool shared by the worker goroutines.
	MaxConnsPerHost int

	// Cache is optional; nil disables response caching.
	Cache    *cache.Manager
	CacheTTL time.Duration
}

// DefaultConfig returns the default configuration: 3 attempts, 0.5s base
// backoff, 20s per-attempt timeout.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:       userAgent,
		Timeout:         20 * time.Second,
		MaxRetries:      3,
		InitialBackoff:  500 * time.Millisecond,
		MaxConnsPerHost: 16,
		CacheTTL:        cache.DefaultTTL,
	}
}

// New creates a new stats API client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("max_retries must be >= 1 (got %d)", cfg.MaxRetries)
	}
	if cfg.InitialBackoff < 0 {
		return nil, fmt.Errorf("initial_backoff must not be negative (got %s)", cfg.InitialBackoff)
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = 16
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = cfg.MaxConnsPerHost

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		cache:  cfg.Cache,
		config: cfg,
		retry: RetryConfig{
			MaxAttempts:       cfg.MaxRetries,
			InitialBackoff:    cfg.InitialBackoff,
			BackoffMultiplier: 2.0,
		},
		logger: logging.NewLogger("fetch-client"),
	}, nil
}

// FetchJSON GETs rawURL and returns its JSON body. It never returns an error
// to the caller: transport failures, timeouts, non-2xx statuses and bodies
// that are not JSON are retried with exponential backoff, and once the
// attempts are exhausted the Result is Empty with Err set.
func (c *Client) FetchJSON(ctx context.Context, rawURL string) Result {
	u, err := url.Parse(rawURL)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", rawURL).Msg("Invalid request URL")
		return Result{URL: rawURL, Err: fmt.Errorf("parse url: %w", err)}
	}
	endpoint := endpointLabel(u.Path)

	if body, ok := c.cacheGet(ctx, u, endpoint); ok {
		return Result{URL: rawURL, Body: body, StatusCode: http.StatusOK, Cached: true}
	}

	var (
		body    []byte
		status  int
		headers http.Header
	)
	attempts, err := retryWithBackoff(ctx, c.retry, c.logger.With().Str("endpoint", endpoint).Logger(), func(attempt int) error {
		var attemptErr error
		body, status, headers, attemptErr = c.attempt(ctx, rawURL, endpoint)
		return attemptErr
	})

	if err != nil {
		degradedTotal.WithLabelValues(endpoint).Inc()
		c.logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Int("attempts", attempts).
			Msg("Request degraded to empty result")
		return Result{URL: rawURL, StatusCode: status, Attempts: attempts, Err: err}
	}

	c.cacheSet(ctx, u, body, headers)

	return Result{URL: rawURL, Body: body, StatusCode: status, Attempts: attempts}
}

// attempt performs a single timed GET.
func (c *Client) attempt(ctx context.Context, rawURL, endpoint string) ([]byte, int, http.Header, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("endpoint", endpoint).Str("url", rawURL).Msg("Executing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	statusLabel := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		requestsTotal.WithLabelValues(endpoint, statusLabel).Inc()
		return nil, resp.StatusCode, nil, &StatusError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}

	if !json.Valid(body) {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		requestsTotal.WithLabelValues(endpoint, "invalid_json").Inc()
		return nil, resp.StatusCode, nil, &StatusError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "response body is not valid JSON",
		}
	}

	requestsTotal.WithLabelValues(endpoint, statusLabel).Inc()
	return body, resp.StatusCode, resp.Header, nil
}

func (c *Client) cacheGet(ctx context.Context, u *url.URL, endpoint string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	entry, err := c.cache.Get(ctx, cache.KeyFromURL(u))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		return nil, false
	}
	c.logger.Debug().Str("endpoint", endpoint).Msg("Cache hit")
	return entry.Data, true
}

func (c *Client) cacheSet(ctx context.Context, u *url.URL, body []byte, headers http.Header) {
	if c.cache == nil {
		return
	}
	entry := cache.NewEntry(body, headers, c.config.CacheTTL)
	if err := c.cache.Set(ctx, cache.KeyFromURL(u), entry); err != nil {
		c.logger.Warn().Err(err).Str("path", u.Path).Msg("Failed to cache response")
	}
}

// endpointLabel replaces numeric path segments with {id} so metric label
// cardinality stays bounded across thousands of people and teams.
func endpointLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
