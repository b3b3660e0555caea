package model

import "strings"

// PaperRecord is a candidate paper as returned by the search provider.
// Immutable once fetched; the provider-assigned ID is the identity used
// for deduplication across the whole run.
type PaperRecord struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Authors  []Author `json:"authors,omitempty"`
	Year     int      `json:"year"` // -1 when unknown
	Venue    string   `json:"venue,omitempty"`
	PDFURL   string   `json:"pdf_url,omitempty"` // open-access full-text locator; empty when none
}

// Author is a paper author split into given and family name.
type Author struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

func (a Author) String() string {
	return strings.TrimSpace(a.First + " " + a.Last)
}

// AuthorLine renders the author list for prompts and reference entries.
func AuthorLine(authors []Author) string {
	if len(authors) == 0 {
		return "Unknown authors"
	}
	parts := make([]string, 0, len(authors))
	for _, a := range authors {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

// PaperStatus is the decided fate of a paper identity within one run.
type PaperStatus int

const (
	StatusCandidate PaperStatus = iota
	StatusAccepted
	StatusRejected
	StatusIngestFailed
)

func (s PaperStatus) String() string {
	switch s {
	case StatusCandidate:
		return "candidate"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusIngestFailed:
		return "ingest_failed"
	default:
		return "unknown"
	}
}
