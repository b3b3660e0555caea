// Package ingest resolves an accepted paper into evidence text: fetching the
// full-text locator, sniffing and parsing the payload, and falling back to
// the abstract when no locator exists. Every failure mode collapses into one
// IngestFailure result so the retrieval loop has a single per-item failure
// path.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/mlindgren/litsurvey/internal/model"
)

// ReasonCode classifies why ingestion of a single paper failed.
type ReasonCode string

const (
	ReasonFetchFailed      ReasonCode = "fetch_failed"
	ReasonRobotsDisallowed ReasonCode = "robots_disallowed"
	ReasonParseFailed      ReasonCode = "parse_failed"
)

// IngestFailure reports a per-paper ingestion failure. It is a normal,
// recoverable outcome: the caller marks the ledger and moves on.
type IngestFailure struct {
	PaperID string
	Reason  ReasonCode
	Err     error
}

func (f *IngestFailure) Error() string {
	return fmt.Sprintf("ingest %s: %s: %v", f.PaperID, f.Reason, f.Err)
}

func (f *IngestFailure) Unwrap() error { return f.Err }

// Truncation bounds for extracted text kept on an evidence item.
const (
	maxTextRunes     = 150_000
	truncationMarker = "\n\n(...content truncated...)\n\n"
)

// Ingestor turns accepted papers into evidence items.
type Ingestor struct {
	fetcher *Fetcher
}

// NewIngestor creates an ingestor around the given fetcher.
func NewIngestor(fetcher *Fetcher) *Ingestor {
	return &Ingestor{fetcher: fetcher}
}

// Ingest resolves the paper's full text. Exactly one of the results is
// non-nil. A paper without a full-text locator is not a failure: the
// abstract stands in as the evidence text.
func (ing *Ingestor) Ingest(ctx context.Context, paper model.PaperRecord) (*model.EvidenceItem, *IngestFailure) {
	if paper.PDFURL == "" {
		return abstractFallback(paper), nil
	}

	data, contentType, err := ing.fetcher.Fetch(ctx, paper.PDFURL)
	if err != nil {
		reason := ReasonFetchFailed
		if errors.Is(err, ErrDisallowed) {
			reason = ReasonRobotsDisallowed
		}
		return nil, &IngestFailure{PaperID: paper.ID, Reason: reason, Err: err}
	}

	text, err := extractText(data, contentType)
	if err != nil {
		return nil, &IngestFailure{PaperID: paper.ID, Reason: ReasonParseFailed, Err: err}
	}

	return &model.EvidenceItem{
		Paper: paper,
		Text:  truncateMiddle(text, maxTextRunes),
	}, nil
}

// extractText sniffs the payload and dispatches to the right parser. The
// magic bytes win over the Content-Type header: plenty of hosts serve PDFs
// under text/html or octet-stream.
func extractText(data []byte, contentType string) (string, error) {
	switch {
	case looksLikePDF(data):
		return pdfToText(data)
	case looksLikeHTML(data, contentType):
		return htmlToText(data)
	default:
		// Last resort: some hosts strip the PDF header transfer chain but the
		// body still parses.
		if text, err := pdfToText(data); err == nil {
			return text, nil
		}
		return "", fmt.Errorf("unsupported document format (content-type %q)", contentType)
	}
}

func abstractFallback(paper model.PaperRecord) *model.EvidenceItem {
	text := paper.Abstract
	if text == "" {
		text = paper.Title
	}
	return &model.EvidenceItem{
		Paper:        paper,
		Text:         text,
		FromAbstract: true,
	}
}

// truncateMiddle keeps the head and tail of overlong text. Papers carry
// their contributions at both ends; the middle is the cheapest cut.
func truncateMiddle(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	half := max / 2
	return string(runes[:half]) + truncationMarker + string(runes[len(runes)-half:])
}
