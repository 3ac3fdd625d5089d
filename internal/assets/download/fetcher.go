package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRateInterval = 100 * time.Millisecond
	defaultTimeout      = 60 * time.Second
	defaultUserAgent    = "PTCGO-Assets/1.0"
	defaultMaxRetries   = 2
	initialBackoff      = 1 * time.Second
	maxBackoff          = 16 * time.Second
)

// Fetcher retrieves the body of a URL. Callers close the returned reader.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	RateInterval time.Duration // Minimum delay between requests
	Timeout      time.Duration // Per request timeout
	UserAgent    string
	MaxRetries   int // Retries after network errors and HTTP 429
}

// DefaultHTTPOptions returns the options used by the CLI.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		RateInterval: defaultRateInterval,
		Timeout:      defaultTimeout,
		UserAgent:    defaultUserAgent,
		MaxRetries:   defaultMaxRetries,
	}
}

// HTTPFetcher fetches URLs over HTTP with rate limiting.
type HTTPFetcher struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	maxRetries  int
	backoff     time.Duration
}

// NewHTTPFetcher creates a fetcher. Zero option values fall back to defaults.
func NewHTTPFetcher(options HTTPOptions) *HTTPFetcher {
	defaults := DefaultHTTPOptions()
	if options.RateInterval <= 0 {
		options.RateInterval = defaults.RateInterval
	}
	if options.Timeout <= 0 {
		options.Timeout = defaults.Timeout
	}
	if options.UserAgent == "" {
		options.UserAgent = defaults.UserAgent
	}
	if options.MaxRetries < 0 {
		options.MaxRetries = 0
	}

	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: options.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(options.RateInterval), 1),
		userAgent:   options.UserAgent,
		maxRetries:  options.MaxRetries,
		backoff:     initialBackoff,
	}
}

// Fetch performs a GET request. Non-200 responses and network failures are
// returned as *TransportError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error
	backoff := f.backoff

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = min(backoff*2, maxBackoff)
		}

		if err := f.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &TransportError{URL: url, Err: err}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp.Body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			_ = resp.Body.Close()
			lastErr = &TransportError{URL: url, StatusCode: resp.StatusCode}
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
				backoff = time.Duration(seconds) * time.Second
			}

		default:
			_ = resp.Body.Close()
			return nil, &TransportError{URL: url, StatusCode: resp.StatusCode}
		}
	}

	return nil, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
