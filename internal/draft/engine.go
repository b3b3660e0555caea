// Package draft generates survey section prose from the evidence corpus.
package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/mlindgren/litsurvey/internal/llm"
	"github.com/mlindgren/litsurvey/internal/model"
	"github.com/mlindgren/litsurvey/internal/worker"
)

const (
	// snippetRunes bounds how much of each evidence item goes into the
	// prompt, keeping the total context within model limits.
	snippetRunes = 4000

	draftTemperature = 0.4
)

const systemPrompt = `You are an academic writing assistant drafting one section of a literature survey. Ground every claim in the provided evidence and cite papers inline using their bracketed keys exactly as given, for example [Smith2021]. Do not invent citation keys, do not add a references section, and do not append commentary about the task. Output only the section prose in Markdown.`

// Engine drafts sections against a fixed corpus.
type Engine struct {
	provider llm.Provider
	pool     *worker.Pool
}

// NewEngine creates a drafting engine with the given parallelism.
func NewEngine(provider llm.Provider, workers int) *Engine {
	return &Engine{provider: provider, pool: worker.NewPool(workers)}
}

// Draft generates one section. drafted carries earlier sections for context
// and may be nil; sections drafted concurrently pass nil and accept that
// they cannot reference each other's prose.
func (e *Engine) Draft(ctx context.Context, section model.SectionConfig, topic string, corpus *model.EvidenceCorpus, drafted []model.SectionDraft) (model.SectionDraft, error) {
	prompt := buildPrompt(section, topic, corpus, drafted)

	text, err := e.provider.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: draftTemperature,
	})
	if err != nil {
		return model.SectionDraft{}, fmt.Errorf("drafting %q: %w", section.Name, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return model.SectionDraft{}, fmt.Errorf("drafting %q: model returned no prose", section.Name)
	}
	return model.SectionDraft{Name: section.Name, Text: text}, nil
}

type draftJob struct {
	engine  *Engine
	section model.SectionConfig
	topic   string
	corpus  *model.EvidenceCorpus
}

type draftResult struct {
	draft model.SectionDraft
	err   error
}

func (r *draftResult) GetError() error { return r.err }

func (j *draftJob) Execute(ctx context.Context) worker.Result {
	d, err := j.engine.Draft(ctx, j.section, j.topic, j.corpus, nil)
	return &draftResult{draft: d, err: err}
}

// DraftAll drafts every outline section concurrently and returns them in
// outline order. Any section failure fails the whole document; a survey
// with holes is worse than no survey.
func (e *Engine) DraftAll(ctx context.Context, sections []model.SectionConfig, topic string, corpus *model.EvidenceCorpus) ([]model.SectionDraft, error) {
	jobs := make([]worker.Job, len(sections))
	for i, s := range sections {
		jobs[i] = &draftJob{engine: e, section: s, topic: topic, corpus: corpus}
	}

	results := e.pool.Run(ctx, jobs)

	drafts := make([]model.SectionDraft, len(sections))
	for i, res := range results {
		if res == nil {
			return nil, fmt.Errorf("drafting %q: %w", sections[i].Name, ctx.Err())
		}
		dr := res.(*draftResult)
		if dr.err != nil {
			return nil, dr.err
		}
		drafts[i] = dr.draft
	}
	return drafts, nil
}

func buildPrompt(section model.SectionConfig, topic string, corpus *model.EvidenceCorpus, drafted []model.SectionDraft) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Survey topic: %s\n", topic)
	fmt.Fprintf(&b, "Section to write: %s\n", section.Name)
	if section.Focus != "" {
		fmt.Fprintf(&b, "This section should cover %s.\n", section.Focus)
	}

	b.WriteString("\nEvidence (cite with the bracketed keys):\n\n")
	for _, key := range corpus.Keys() {
		item, ok := corpus.Get(key)
		if !ok {
			continue
		}
		p := item.Paper
		fmt.Fprintf(&b, "[%s] %q", key, p.Title)
		if line := model.AuthorLine(p.Authors); line != "" {
			fmt.Fprintf(&b, " by %s", line)
		}
		if p.Year > 0 {
			fmt.Fprintf(&b, " (%d)", p.Year)
		}
		if p.Venue != "" {
			fmt.Fprintf(&b, ", %s", p.Venue)
		}
		b.WriteString("\n")
		b.WriteString(item.Snippet(snippetRunes))
		b.WriteString("\n\n")
	}

	if len(drafted) > 0 {
		b.WriteString("Sections already written (do not repeat their content):\n\n")
		for _, d := range drafted {
			fmt.Fprintf(&b, "## %s\n%s\n\n", d.Name, d.Text)
		}
	}

	fmt.Fprintf(&b, "Write the %q section now.", section.Name)
	return b.String()
}
