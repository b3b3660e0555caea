// Package pipeline orchestrates the complete survey run, from query
// planning through retrieval, drafting, reconciliation and output.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mlindgren/litsurvey/internal/cache"
	"github.com/mlindgren/litsurvey/internal/classify"
	"github.com/mlindgren/litsurvey/internal/digest"
	"github.com/mlindgren/litsurvey/internal/draft"
	"github.com/mlindgren/litsurvey/internal/ingest"
	"github.com/mlindgren/litsurvey/internal/llm"
	"github.com/mlindgren/litsurvey/internal/model"
	"github.com/mlindgren/litsurvey/internal/plan"
	"github.com/mlindgren/litsurvey/internal/reconcile"
	"github.com/mlindgren/litsurvey/internal/report"
	"github.com/mlindgren/litsurvey/internal/retrieve"
	"github.com/mlindgren/litsurvey/internal/search"
	"github.com/mlindgren/litsurvey/internal/worker"
)

// Pipeline wires every stage of a survey run.
type Pipeline struct {
	config    *Config
	provider  llm.Provider
	searcher  *search.Client
	planner   *plan.Planner
	loop      *retrieve.Loop
	engine    *draft.Engine
	converter *report.Converter
	logf      func(string, ...any)
}

// Config is the model configuration plus output hooks.
type Config struct {
	Model *model.Config

	// Logf receives progress output; nil discards it.
	Logf func(format string, args ...any)
}

// New builds a fully wired pipeline from configuration. The LLM provider is
// mandatory: classification and drafting cannot run without one.
func New(cfg Config) (*Pipeline, error) {
	mc := cfg.Model
	if mc == nil {
		mc = model.DefaultConfig()
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	provider, err := llm.NewProvider(llm.Config{
		Provider:  mc.LLM.Provider,
		Model:     mc.LLM.Model,
		APIKey:    mc.LLM.APIKey,
		BaseURL:   mc.LLM.BaseURL,
		Timeout:   mc.LLM.Timeout,
		MaxTokens: mc.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	searchOpts := []search.Option{search.WithUserAgent(mc.HTTP.UserAgent)}
	if mc.Search.APIKey != "" {
		searchOpts = append(searchOpts, search.WithAPIKey(mc.Search.APIKey))
	}
	if mc.Search.BaseURL != "" {
		searchOpts = append(searchOpts, search.WithBaseURL(mc.Search.BaseURL))
	}
	searcher := search.NewClient(searchOpts...)

	var verdictCache cache.Cache
	if mc.Cache.Enabled {
		verdictCache = cache.NewMemoryCache(mc.Cache.TTL, mc.Cache.TTL)
	}
	classifier := classify.New(provider, verdictCache, mc.Cache.TTL)

	robots := ingest.NewRobotsChecker(mc.HTTP.UserAgent, mc.HTTP.Timeout)
	limiter := worker.NewLimiter(1, 1)
	fetcher := ingest.NewFetcher(mc.HTTP.Timeout, mc.HTTP.UserAgent, mc.HTTP.MaxBodyBytes, robots, limiter)
	ingestor := ingest.NewIngestor(fetcher)

	var summarizer retrieve.Summarizer
	if mc.Digest.Enabled {
		summarizer = digest.New(provider)
	}

	loop := retrieve.New(searcher, classifier, ingestor, retrieve.Options{
		Target:          mc.Search.TargetPapers,
		PageSize:        mc.Search.PageSize,
		MaxPages:        mc.Search.MaxPages,
		ClassifyWorkers: mc.Concurrency.ClassifyWorkers,
		IngestWorkers:   mc.Concurrency.IngestWorkers,
		Summarizer:      summarizer,
		Logf:            logf,
	})

	return &Pipeline{
		config:    &Config{Model: mc, Logf: logf},
		provider:  provider,
		searcher:  searcher,
		planner:   plan.New(provider),
		loop:      loop,
		engine:    draft.NewEngine(provider, mc.Concurrency.DraftWorkers),
		converter: report.NewConverter(),
		logf:      logf,
	}, nil
}

// RunResult reports where the survey landed and how the run went.
type RunResult struct {
	MarkdownPath string
	PDFPath      string
	PaperCount   int
	MetTarget    bool
}

// Run executes the whole survey for topic and writes the outputs.
func (p *Pipeline) Run(ctx context.Context, topic string) (*RunResult, error) {
	mc := p.config.Model

	if !p.provider.IsAvailable(ctx) {
		return nil, fmt.Errorf("llm provider %s is not available; check credentials and connectivity", p.provider.Name())
	}

	// PDF tooling is checked before spending API budget, so a missing
	// binary surfaces immediately rather than after the run.
	mdPath := filepath.Join(mc.Output.Dir, report.Slug(topic)+"_survey.md")
	pdfPath := filepath.Join(mc.Output.Dir, report.Slug(topic)+"_survey.pdf")
	if mc.Output.RenderPDF {
		if err := p.converter.Preflight(mdPath, pdfPath); err != nil {
			return nil, err
		}
	}

	// 1. Plan extra search queries. Planning failures degrade to a
	// single-query run rather than aborting.
	var extraQueries []string
	if mc.Planner.Queries > 0 {
		queries, err := p.planner.Plan(ctx, topic, mc.Planner.Queries)
		if err != nil {
			p.logf("query planning failed, continuing with the topic alone: %v", err)
		} else {
			extraQueries = queries
			p.logf("planned %d extra queries", len(queries))
		}
	}

	// 2. Retrieve evidence.
	res, err := p.loop.Run(ctx, topic, extraQueries)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	if res.Corpus.Len() == 0 {
		return nil, fmt.Errorf("no relevant papers found for %q; try a broader topic", topic)
	}
	if !res.MetTarget {
		p.logf("collected %d of %d papers before the provider ran dry; drafting from the partial corpus",
			res.Corpus.Len(), mc.Search.TargetPapers)
	}

	// 3. Draft sections.
	sections := mc.Sections
	if len(sections) == 0 {
		sections = model.DefaultOutline()
	}
	drafts, err := p.engine.DraftAll(ctx, sections, topic, res.Corpus)
	if err != nil {
		return nil, fmt.Errorf("drafting: %w", err)
	}

	// 4. Reconcile citations and build references.
	refs, err := reconcile.Build(drafts, res.Corpus)
	if err != nil {
		return nil, fmt.Errorf("citation reconciliation: %w", err)
	}

	// 5. Assemble and write.
	doc := report.Assemble(topic, drafts, refs.Render())
	written, err := report.WriteMarkdown(mc.Output.Dir, topic, doc)
	if err != nil {
		return nil, err
	}
	p.logf("wrote %s (%d papers, %d references)", written, res.Corpus.Len(), refs.Len())

	result := &RunResult{
		MarkdownPath: written,
		PaperCount:   res.Corpus.Len(),
		MetTarget:    res.MetTarget,
	}

	// 6. Render PDF. The Markdown already on disk is the deliverable;
	// conversion failure is reported but does not undo the run.
	if mc.Output.RenderPDF {
		if err := p.converter.Convert(ctx, written, pdfPath); err != nil {
			p.logf("PDF conversion failed, Markdown kept at %s: %v", written, err)
		} else {
			result.PDFPath = pdfPath
			p.logf("wrote %s", pdfPath)
		}
	}

	return result, nil
}
