// Package fetch provides the shared HTTP fetching and HTML parsing core
// used by every source adapter: resilient single-page fetches with retry
// and backoff, per-client rate limiting, selector cascades, and text
// extraction helpers. It has no knowledge of any specific source.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mhartsell/bidsweep-go/internal/metrics"
)

const maxAttempts = 3

// Sentinel errors for fetch outcomes. Adapters treat any error as a
// per-URL failure; these let callers distinguish gone sources from
// blocked ones in logs.
var (
	// ErrNotFound is a terminal 404: the source usually moved.
	ErrNotFound = errors.New("page not found")

	// ErrForbidden is a 403 that persisted through the alternate
	// browser-like header set.
	ErrForbidden = errors.New("access forbidden")
)

// StatusError reports a non-success HTTP status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d for %s", e.StatusCode, e.URL)
}

// Options configures a fetch client.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// MinDelay is the minimum gap between consecutive requests from
	// this client. Zero disables rate limiting (tests).
	MinDelay time.Duration
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// Client performs rate-limited HTTP fetches with retry and backoff.
// Each Client carries its own rate-limit clock and http.Client, so
// parallel workers holding separate Clients never serialize on a
// shared limiter.
type Client struct {
	http      *http.Client
	userAgent string
	minDelay  time.Duration
	metrics   *metrics.Collector
	logger    *slog.Logger

	mu          sync.Mutex
	nextAllowed time.Time
}

// NewClient creates a fetch client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "bidsweep/1.0 (procurement research)"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: ua,
		minDelay:  opts.MinDelay,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Get fetches url and parses the response body into a Page. Transient
// failures (timeouts, connection resets, 5xx) are retried up to three
// attempts with exponential backoff. A 403 is retried once with a
// fuller browser-like header set to get past naive bot blocking. A 404
// or any other 4xx is terminal for this URL and attempted exactly once.
func (c *Client) Get(ctx context.Context, url string) (*Page, error) {
	return c.Do(ctx, http.MethodGet, url, nil)
}

// Do is Get with method and extra headers. Header values override the
// defaults for this request only.
func (c *Client) Do(ctx context.Context, method, url string, headers map[string]string) (*Page, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.2

	triedAltHeaders := false
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.waitTurn(ctx); err != nil {
			return nil, err
		}

		hdrs := c.defaultHeaders()
		if triedAltHeaders {
			hdrs = browserHeaders(url)
		}
		for k, v := range headers {
			hdrs[k] = v
		}

		start := time.Now()
		page, err := c.fetchOnce(ctx, method, url, hdrs)
		if err == nil {
			if c.metrics != nil {
				c.metrics.RecordTiming(metrics.OpFetch, time.Since(start))
			}
			return page, nil
		}
		if c.metrics != nil {
			c.metrics.RecordError(metrics.OpFetch)
		}
		lastErr = err

		switch classify(err) {
		case outcomeTerminal:
			c.logger.Warn("fetch failed permanently", "url", url, "error", err)
			return nil, err
		case outcomeForbidden:
			if triedAltHeaders {
				return nil, fmt.Errorf("%s: %w", url, ErrForbidden)
			}
			// One more try with headers a browser would send. It
			// does not consume a regular attempt, so a 403 on the
			// last attempt still gets its retry.
			triedAltHeaders = true
			attempt--
			c.logger.Debug("retrying 403 with browser headers", "url", url)
			continue
		case outcomeTransient:
			if attempt == maxAttempts {
				c.logger.Warn("fetch failed after retries", "url", url, "attempts", attempt, "error", err)
				return nil, err
			}
			delay := bo.NextBackOff()
			c.logger.Debug("retrying transient fetch failure", "url", url, "attempt", attempt, "delay", delay, "error", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// waitTurn blocks until this client's minimum inter-request delay has
// elapsed. The slot is reserved under the lock so concurrent callers on
// the same client queue up rather than stampede.
func (c *Client) waitTurn(ctx context.Context) error {
	if c.minDelay <= 0 {
		return nil
	}

	c.mu.Lock()
	now := time.Now()
	at := c.nextAllowed
	if at.Before(now) {
		at = now
	}
	c.nextAllowed = at.Add(c.minDelay)
	c.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) fetchOnce(ctx context.Context, method, url string, headers map[string]string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	parseStart := time.Now()
	page, err := ParsePage(resp.Body, resp.Request.URL.String(), resp.StatusCode)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordError(metrics.OpParse)
		}
		return nil, backoff.Permanent(fmt.Errorf("parse %s: %w", url, err))
	}
	if c.metrics != nil {
		c.metrics.RecordTiming(metrics.OpParse, time.Since(parseStart))
	}
	return page, nil
}

func (c *Client) defaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": c.userAgent,
		"Accept":     "text/html,application/xhtml+xml",
	}
}

// browserHeaders is the alternate header set used to retry a 403 once.
// Some portals reject anything that does not look like a desktop browser.
func browserHeaders(url string) map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         url,
	}
}

type outcome int

const (
	outcomeTransient outcome = iota
	outcomeTerminal
	outcomeForbidden
)

// classify sorts a fetch error into the retry taxonomy: transient
// (retry with backoff), forbidden (one alt-header retry), or terminal
// (404, other 4xx, DNS failure, cancellation).
func classify(err error) outcome {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return outcomeTerminal
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return outcomeTerminal
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusForbidden:
			return outcomeForbidden
		case statusErr.StatusCode == http.StatusNotFound:
			return outcomeTerminal
		case statusErr.StatusCode >= 500:
			return outcomeTransient
		default:
			return outcomeTerminal
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return outcomeTerminal
	}

	// Timeouts, connection resets and everything else network-shaped.
	return outcomeTransient
}

// IsNotFound reports whether err was a terminal 404 for the URL.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}
