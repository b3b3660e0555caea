// Package search provides a paged, rate-limited client for the Semantic
// Scholar Graph API paper search endpoint.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mlindgren/litsurvey/internal/model"
)

const (
	// DefaultBaseURL is the Semantic Scholar Graph API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// searchFields are the paper fields requested on every search.
	searchFields = "paperId,title,abstract,authors,year,publicationVenue,openAccessPdf"

	// Unauthenticated clients share a pool limited to roughly 1 req/s.
	requestsPerSecond = 1.0

	maxAttempts = 4
)

// Page is one page of search results.
type Page struct {
	Papers  []model.PaperRecord
	HasMore bool
}

// Client issues paged paper searches with bounded retry and backoff.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	userAgent  string

	// sleep is injectable for retry tests.
	sleep func(time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the Semantic Scholar API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a search client. The API key defaults to the
// SEMANTIC_SCHOLAR_API_KEY environment variable.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		baseURL:    DefaultBaseURL,
		userAgent:  "litsurvey/0.1",
		sleep:      time.Sleep,
	}
	if key := os.Getenv("SEMANTIC_SCHOLAR_API_KEY"); key != "" {
		c.apiKey = key
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Next   int             `json:"next"`
	Data   []searchedPaper `json:"data"`
}

type searchedPaper struct {
	PaperID  string `json:"paperId"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Year     *int   `json:"year"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	PublicationVenue *struct {
		Name string `json:"name"`
	} `json:"publicationVenue"`
	OpenAccessPDF *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

// Search requests one page of results for the query at the given offset.
// Rate-limited and retried with exponential backoff on rate limiting,
// server errors and transport failures; exhausting the retry budget yields
// a ProviderUnavailableError. A provider response indicating the offset is
// past the end of the result set is reported as an empty page with
// HasMore=false, not an error.
func (c *Client) Search(ctx context.Context, query string, offset, limit int) (*Page, error) {
	reqURL := fmt.Sprintf("%s/paper/search?%s", c.baseURL, url.Values{
		"query":  {query},
		"fields": {searchFields},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}.Encode())

	backoff := time.Second
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, retryAfter, err := c.doSearch(ctx, reqURL, limit)
		if err == nil {
			return page, nil
		}
		if !isTransient(err) {
			return nil, err
		}
		lastErr = err

		if attempt < maxAttempts {
			delay := backoff
			if retryAfter > delay {
				delay = retryAfter
			}
			c.sleep(delay)
			backoff *= 2
		}
	}

	return nil, &ProviderUnavailableError{Attempts: maxAttempts, Err: lastErr}
}

func (c *Client) doSearch(ctx context.Context, reqURL string, limit int) (*Page, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &transientError{err: fmt.Errorf("search request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10_000_000))
	if err != nil {
		return nil, 0, &transientError{err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")),
			&transientError{err: fmt.Errorf("rate limited (429)")}
	case resp.StatusCode >= 500:
		return nil, 0, &transientError{err: fmt.Errorf("server error: %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusBadRequest:
		// The provider answers 400 when the offset runs past the end of the
		// result window. That is exhaustion, not failure.
		if strings.Contains(strings.ToLower(string(body)), "offset") {
			return &Page{HasMore: false}, 0, nil
		}
		return nil, 0, fmt.Errorf("bad request: %s", strings.TrimSpace(string(body)))
	case resp.StatusCode != http.StatusOK:
		return nil, 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}

	page := &Page{HasMore: parsed.Next > 0 && len(parsed.Data) == limit}
	for _, sp := range parsed.Data {
		if sp.PaperID == "" {
			continue
		}
		page.Papers = append(page.Papers, mapPaper(sp))
	}
	return page, 0, nil
}

func mapPaper(sp searchedPaper) model.PaperRecord {
	p := model.PaperRecord{
		ID:       sp.PaperID,
		Title:    sp.Title,
		Abstract: sp.Abstract,
		Year:     -1,
	}
	if sp.Year != nil {
		p.Year = *sp.Year
	}
	if sp.PublicationVenue != nil {
		p.Venue = sp.PublicationVenue.Name
	}
	if sp.OpenAccessPDF != nil {
		p.PDFURL = sp.OpenAccessPDF.URL
	}
	for _, a := range sp.Authors {
		p.Authors = append(p.Authors, splitName(a.Name))
	}
	return p
}

// splitName splits a display name into given and family parts. The provider
// only exposes full display names, so the last token is taken as the surname.
func splitName(name string) model.Author {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return model.Author{}
	case 1:
		return model.Author{Last: parts[0]}
	default:
		return model.Author{
			First: strings.Join(parts[:len(parts)-1], " "),
			Last:  parts[len(parts)-1],
		}
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
