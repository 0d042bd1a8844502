package pipeline

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/cache"
	"github.com/ppiankov/calscrape/internal/util"
)

// fetchSleepFunc is replaced in tests to skip backoff waits
var fetchSleepFunc = time.Sleep

// fetchBackoff is the wait before the second and third attempt
var fetchBackoff = []time.Duration{time.Second, 2 * time.Second}

// StatusError is a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// RateLimiter paces requests per domain
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// FetcherConfig configures the page transport
type FetcherConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	MaxAttempts  int
	InsecureTLS  bool
	HTTPProxy    string
	HTTPSProxy   string
	NoProxy      string

	// Cache stores successful pages; nil disables caching
	Cache    cache.Cache
	CacheTTL time.Duration

	// Limiter paces requests; nil disables pacing
	Limiter RateLimiter

	Logger zerolog.Logger
}

// Fetcher fetches HTML pages with browser-like headers
type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	maxBytes    int64
	maxAttempts int
	cache       cache.Cache
	cacheTTL    time.Duration
	limiter     RateLimiter
	logger      zerolog.Logger
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(cfg FetcherConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for municipal sites with broken chains
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent:   cfg.UserAgent,
		maxBytes:    maxBytes,
		maxAttempts: attempts,
		cache:       cfg.Cache,
		cacheTTL:    cfg.CacheTTL,
		limiter:     cfg.Limiter,
		logger:      cfg.Logger,
	}
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML        string
	FinalURL    string
	StatusCode  int
	ContentType string
	FromCache   bool
}

// FetchPage implements extract.PageFetcher
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (string, error) {
	result, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// FetchWithRetry serves from the cache when possible, otherwise fetches with
// retries on transient failures
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.PageKey(rawURL)
	if f.cache != nil {
		if body, ok := f.cache.Get(key); ok {
			f.logger.Debug().Str("url", rawURL).Msg("Page served from cache")
			return &FetchResult{HTML: string(body), FinalURL: rawURL, StatusCode: http.StatusOK, FromCache: true}, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			if f.cache != nil {
				if cerr := f.cache.Set(key, []byte(result.HTML), f.cacheTTL); cerr != nil {
					f.logger.Warn().Err(cerr).Str("url", rawURL).Msg("Failed to cache page")
				}
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || attempt == f.maxAttempts || ctx.Err() != nil {
			break
		}

		wait := fetchBackoff[len(fetchBackoff)-1]
		if attempt-1 < len(fetchBackoff) {
			wait = fetchBackoff[attempt-1]
		}
		f.logger.Debug().
			Err(err).
			Str("url", rawURL).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying fetch")
		fetchSleepFunc(wait)
	}

	return nil, lastErr
}

// Fetch retrieves HTML content from the given URL in a single attempt
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML:        string(body),
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// isRetryableFetchError reports whether another attempt may succeed.
// Timeouts are not retried; they degrade to per-item fallbacks upstream.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset")
}
