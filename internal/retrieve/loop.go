// Package retrieve implements the evidence retrieval loop: iterative paged
// search, relevance classification, and full-text ingestion, accumulating an
// evidence corpus until a target is met or the provider runs dry.
package retrieve

import (
	"context"
	"sync"

	"github.com/mlindgren/litsurvey/internal/cite"
	"github.com/mlindgren/litsurvey/internal/ingest"
	"github.com/mlindgren/litsurvey/internal/ledger"
	"github.com/mlindgren/litsurvey/internal/model"
	"github.com/mlindgren/litsurvey/internal/search"
)

// Searcher issues one page of provider results.
type Searcher interface {
	Search(ctx context.Context, query string, offset, limit int) (*search.Page, error)
}

// Classifier judges a paper's relevance to the topic.
type Classifier interface {
	Classify(ctx context.Context, topic string, paper model.PaperRecord) (bool, error)
}

// Ingestor resolves an accepted paper into evidence text.
type Ingestor interface {
	Ingest(ctx context.Context, paper model.PaperRecord) (*model.EvidenceItem, *ingest.IngestFailure)
}

// Summarizer produces an optional topic-focused digest of ingested text.
type Summarizer interface {
	Summarize(ctx context.Context, topic string, item *model.EvidenceItem) (string, error)
}

// Options bounds the loop.
type Options struct {
	// Target is the evidence count the loop tries to reach.
	Target int

	// PageSize is the number of candidates requested per provider page.
	PageSize int

	// MaxPages caps total pages fetched across all query streams, so the
	// loop stays live even against a provider that always claims more.
	MaxPages int

	ClassifyWorkers int
	IngestWorkers   int

	// Summarizer is optional; nil disables per-paper digests.
	Summarizer Summarizer

	// Logf receives per-item progress and absorbed failures; nil discards.
	Logf func(format string, args ...any)
}

// Result is the outcome of one loop invocation.
type Result struct {
	Corpus *model.EvidenceCorpus

	// MetTarget reports whether Target was reached. A short corpus is a
	// valid outcome, not an error; callers adjust expectations downstream.
	MetTarget bool

	Accepted     int
	Rejected     int
	IngestFailed int
	PagesFetched int
}

// Loop orchestrates search, classification, ingestion and the ledger.
type Loop struct {
	searcher   Searcher
	classifier Classifier
	ingestor   Ingestor
	opts       Options
	logf       func(string, ...any)
}

// New creates a retrieval loop.
func New(searcher Searcher, classifier Classifier, ingestor Ingestor, opts Options) *Loop {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	if opts.ClassifyWorkers <= 0 {
		opts.ClassifyWorkers = 1
	}
	if opts.IngestWorkers <= 0 {
		opts.IngestWorkers = 1
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Loop{
		searcher:   searcher,
		classifier: classifier,
		ingestor:   ingestor,
		opts:       opts,
		logf:       logf,
	}
}

// Run collects evidence for the topic. extraQueries are additional query
// streams searched after the topic itself; the ledger dedups identities
// across streams. The loop terminates when the target is met, when every
// query stream is exhausted, or when the page cap is hit — whichever comes
// first. Provider unavailability is fatal and returns no corpus.
func (l *Loop) Run(ctx context.Context, topic string, extraQueries []string) (*Result, error) {
	led := ledger.New()
	alloc := cite.NewAllocator()
	res := &Result{Corpus: model.NewCorpus()}

	queries := []string{topic}
	for _, q := range extraQueries {
		if q != "" && q != topic {
			queries = append(queries, q)
		}
	}

	for _, query := range queries {
		exhausted, err := l.drainQuery(ctx, topic, query, led, alloc, res)
		if err != nil {
			return nil, err
		}
		if !exhausted {
			// Target met or page cap hit; stop across all streams.
			break
		}
	}

	res.MetTarget = l.opts.Target > 0 && res.Corpus.Len() >= l.opts.Target
	return res, nil
}

// drainQuery pages through one query stream. It returns exhausted=true when
// the provider reported no more results for the query, and false when a
// global termination condition stopped the paging.
func (l *Loop) drainQuery(ctx context.Context, topic, query string, led *ledger.Ledger, alloc *cite.Allocator, res *Result) (exhausted bool, err error) {
	offset := 0
	for {
		if res.PagesFetched >= l.opts.MaxPages {
			l.logf("page cap of %d reached, stopping search", l.opts.MaxPages)
			return false, nil
		}

		page, err := l.searcher.Search(ctx, query, offset, l.opts.PageSize)
		if err != nil {
			return false, err
		}
		res.PagesFetched++

		var candidates []model.PaperRecord
		for _, p := range page.Papers {
			if !led.Seen(p.ID) {
				candidates = append(candidates, p)
			}
		}

		if err := l.processCandidates(ctx, topic, candidates, led, alloc, res); err != nil {
			return false, err
		}

		if l.opts.Target > 0 && res.Corpus.Len() >= l.opts.Target {
			return false, nil
		}
		if !page.HasMore {
			return true, nil
		}
		offset += l.opts.PageSize
	}
}

// processCandidates classifies and ingests one page's worth of new
// candidates. Classification and ingestion fan out with bounded
// concurrency; all ledger writes happen on this goroutine afterwards, in
// page order, so outcomes are deterministic for a given page.
func (l *Loop) processCandidates(ctx context.Context, topic string, candidates []model.PaperRecord, led *ledger.Ledger, alloc *cite.Allocator, res *Result) error {
	verdicts := l.classifyAll(ctx, topic, candidates)

	var accepted []model.PaperRecord
	for i, p := range candidates {
		status := model.StatusRejected
		if verdicts[i] {
			status = model.StatusAccepted
			accepted = append(accepted, p)
		} else {
			res.Rejected++
		}
		if err := led.Record(p.ID, status); err != nil {
			return err
		}
	}

	outcomes := l.ingestAll(ctx, topic, accepted)
	for i, p := range accepted {
		if outcomes[i].failure != nil {
			l.logf("skipping %s (%q): %v", p.ID, p.Title, outcomes[i].failure)
			if err := led.Record(p.ID, model.StatusIngestFailed); err != nil {
				return err
			}
			res.IngestFailed++
			continue
		}

		key, rename := alloc.Assign(p)
		for old, renamed := range rename {
			res.Corpus.Rekey(old, renamed)
		}
		res.Corpus.Add(key, outcomes[i].item)
		res.Accepted++
		l.logf("collected [%s] %q (%d/%d)", key, p.Title, res.Corpus.Len(), l.opts.Target)
	}
	return nil
}

func (l *Loop) classifyAll(ctx context.Context, topic string, candidates []model.PaperRecord) []bool {
	verdicts := make([]bool, len(candidates))
	semaphore := make(chan struct{}, l.opts.ClassifyWorkers)
	var wg sync.WaitGroup

	for i, p := range candidates {
		wg.Add(1)
		go func(idx int, paper model.PaperRecord) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			relevant, err := l.classifier.Classify(ctx, topic, paper)
			if err != nil {
				l.logf("classification of %s fell back to not-relevant: %v", paper.ID, err)
			}
			verdicts[idx] = relevant
		}(i, p)
	}
	wg.Wait()
	return verdicts
}

type ingestOutcome struct {
	item    *model.EvidenceItem
	failure *ingest.IngestFailure
}

func (l *Loop) ingestAll(ctx context.Context, topic string, accepted []model.PaperRecord) []ingestOutcome {
	outcomes := make([]ingestOutcome, len(accepted))
	semaphore := make(chan struct{}, l.opts.IngestWorkers)
	var wg sync.WaitGroup

	for i, p := range accepted {
		wg.Add(1)
		go func(idx int, paper model.PaperRecord) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				outcomes[idx].failure = &ingest.IngestFailure{
					PaperID: paper.ID, Reason: ingest.ReasonFetchFailed, Err: ctx.Err(),
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			item, failure := l.ingestor.Ingest(ctx, paper)
			if failure != nil {
				outcomes[idx].failure = failure
				return
			}

			if l.opts.Summarizer != nil && !item.FromAbstract {
				summary, err := l.opts.Summarizer.Summarize(ctx, topic, item)
				if err != nil {
					l.logf("digest of %s skipped: %v", paper.ID, err)
				} else {
					item.Summary = summary
				}
			}
			outcomes[idx].item = item
		}(i, p)
	}
	wg.Wait()
	return outcomes
}
