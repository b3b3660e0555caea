package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(serverURL string) *Client {
	c := NewClient(WithBaseURL(serverURL), WithAPIKey("test-key"))
	c.limiter.SetLimit(1000) // don't slow tests down
	c.sleep = func(time.Duration) {}
	return c
}

func TestSearchParsesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "protein folding" {
			t.Errorf("expected query 'protein folding', got %q", got)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		fmt.Fprint(w, `{
			"total": 100, "offset": 0, "next": 2,
			"data": [
				{"paperId": "p1", "title": "Folding at Home", "abstract": "We fold.",
				 "year": 2021,
				 "authors": [{"name": "Jane van der Berg"}, {"name": "Bob Smith"}],
				 "publicationVenue": {"name": "Nature"},
				 "openAccessPdf": {"url": "https://example.org/p1.pdf"}},
				{"paperId": "p2", "title": "Misfolding", "year": null, "authors": []}
			]
		}`)
	}))
	defer server.Close()

	page, err := newTestClient(server.URL).Search(context.Background(), "protein folding", 0, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(page.Papers) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(page.Papers))
	}
	if !page.HasMore {
		t.Error("expected HasMore=true when next offset is reported")
	}

	p1 := page.Papers[0]
	if p1.ID != "p1" || p1.Year != 2021 || p1.Venue != "Nature" || p1.PDFURL != "https://example.org/p1.pdf" {
		t.Errorf("unexpected first paper: %+v", p1)
	}
	if p1.Authors[0].First != "Jane van der" || p1.Authors[0].Last != "Berg" {
		t.Errorf("unexpected author split: %+v", p1.Authors[0])
	}

	if page.Papers[1].Year != -1 {
		t.Errorf("missing year should map to -1, got %d", page.Papers[1].Year)
	}
}

func TestSearchLastPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total": 1, "offset": 0, "data": [{"paperId": "p1", "title": "Only One"}]}`)
	}))
	defer server.Close()

	page, err := newTestClient(server.URL).Search(context.Background(), "niche", 0, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.HasMore {
		t.Error("expected HasMore=false when no next offset is reported")
	}
}

func TestSearchRetriesRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"total": 0, "offset": 0, "data": []}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	if _, err := c.Search(context.Background(), "q", 0, 5); err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(slept))
	}
	// Second backoff doubles and must be at least the Retry-After hint.
	if slept[1] < slept[0] {
		t.Errorf("expected non-decreasing backoff, got %v then %v", slept[0], slept[1])
	}
}

func TestSearchExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "q", 0, 5)
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	var unavailable *ProviderUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ProviderUnavailableError, got %T: %v", err, err)
	}
	if unavailable.Attempts != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, unavailable.Attempts)
	}
}

func TestSearchOffsetPastEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "this limit and/or offset is not available"}`)
	}))
	defer server.Close()

	page, err := newTestClient(server.URL).Search(context.Background(), "q", 9000, 5)
	if err != nil {
		t.Fatalf("offset past end should not be an error, got %v", err)
	}
	if page.HasMore || len(page.Papers) != 0 {
		t.Errorf("expected empty exhausted page, got %+v", page)
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in          string
		first, last string
	}{
		{"Bob Smith", "Bob", "Smith"},
		{"Cher", "", "Cher"},
		{"", "", ""},
		{"Jane van der Berg", "Jane van der", "Berg"},
	}
	for _, c := range cases {
		got := splitName(c.in)
		if got.First != c.first || got.Last != c.last {
			t.Errorf("splitName(%q) = %+v, want first=%q last=%q", c.in, got, c.first, c.last)
		}
	}
}
