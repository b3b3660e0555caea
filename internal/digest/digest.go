// Package digest produces short topic-focused summaries of ingested papers.
// The summaries stand in for raw extracted text in drafting prompts, which
// keeps prompt sizes flat no matter how long the papers run.
package digest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mlindgren/litsurvey/internal/llm"
	"github.com/mlindgren/litsurvey/internal/model"
)

const systemPrompt = `You are an expert research assistant. Your task is to read and summarise research papers. The summary should focus on the provided topic, highlighting the most relevant points from the paper. The summary should be concise and informative.`

type summaryResponse struct {
	Summary string `json:"summary"`
}

// Summarizer wraps the text-completion backend for per-paper digests.
type Summarizer struct {
	provider llm.Provider
}

// New creates a summarizer.
func New(provider llm.Provider) *Summarizer {
	return &Summarizer{provider: provider}
}

// Summarize returns a topic-focused summary of the evidence text. Failures
// are reported to the caller, who keeps the raw extracted text instead; a
// missing digest never costs the run a paper.
func (s *Summarizer) Summarize(ctx context.Context, topic string, item *model.EvidenceItem) (string, error) {
	prompt := fmt.Sprintf(`Summarise the following paper, focusing on the topic %q. The summary should be concise and informative, highlighting the most relevant points from the paper.

<paper>
# %s

%s
</paper>

Return a JSON object with a single key 'summary' mapping to the summary string.`,
		topic, item.Paper.Title, item.Text)

	completion, err := s.provider.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: 0.0,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("summarise %s: %w", item.Paper.ID, err)
	}

	raw, ok := llm.ExtractJSONObject(completion)
	if !ok {
		return "", fmt.Errorf("summarise %s: no JSON object in response", item.Paper.ID)
	}
	var parsed summaryResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("summarise %s: unparsable response: %w", item.Paper.ID, err)
	}
	if parsed.Summary == "" {
		return "", fmt.Errorf("summarise %s: empty summary", item.Paper.ID)
	}
	return parsed.Summary, nil
}
