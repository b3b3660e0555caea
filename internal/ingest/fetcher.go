package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mlindgren/litsurvey/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching a locator.
var ErrDisallowed = errors.New("fetch disallowed by robots.txt")

const fetchAttempts = 3

// Fetcher retrieves full-text documents over HTTP with robots.txt checks,
// per-host rate limiting and bounded retry on transient failures.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker
	limiter    *worker.Limiter

	// sleep is injectable for retry tests.
	sleep func(time.Duration)
}

// NewFetcher creates a fetcher. robots and limiter may be nil to disable the
// corresponding checks.
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, robots *RobotsChecker, limiter *worker.Limiter) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		robots:    robots,
		limiter:   limiter,
		sleep:     time.Sleep,
	}
}

// Fetch retrieves the document at the locator, returning the body bytes and
// the response Content-Type. Transport errors and server errors are retried
// up to the attempt budget; 403 and 404 are final on first sight since
// retrying a host that refuses or lacks the document only burns goodwill.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if f.robots != nil {
		allowed, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, "", fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, "", ErrDisallowed
		}
	}

	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, rawURL); err != nil {
				return nil, "", err
			}
		}

		body, contentType, err, retryable := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, contentType, nil
		}
		if !retryable {
			return nil, "", err
		}
		lastErr = err
		if attempt < fetchAttempts {
			f.sleep(time.Duration(attempt) * time.Second)
		}
	}
	return nil, "", fmt.Errorf("fetch failed after %d attempts: %w", fetchAttempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (body []byte, contentType string, err error, retryable bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err), false
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf,text/html;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err), true
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		return nil, "", fmt.Errorf("unexpected status: %d", resp.StatusCode), false
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, "", fmt.Errorf("unexpected status: %d", resp.StatusCode), true
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, "", fmt.Errorf("unexpected status: %d", resp.StatusCode), false
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err), true
	}
	return body, resp.Header.Get("Content-Type"), nil, false
}
