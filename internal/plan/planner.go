// Package plan expands a survey topic into additional search queries so the
// retrieval loop can cast a wider net than the topic string alone.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mlindgren/litsurvey/internal/llm"
)

const systemPrompt = `You are an expert academic researcher. Your task is to generate a list of concise search queries that can be used to find academic papers related to a given topic. The queries should be specific enough to yield relevant results, but not so specific that they miss important papers. Each query should be a single line of text. Do not use 'OR' or 'AND' statements in the queries.`

type queriesResponse struct {
	Queries []string `json:"queries"`
}

// Planner generates search queries from a topic.
type Planner struct {
	provider llm.Provider
}

// New creates a planner.
func New(provider llm.Provider) *Planner {
	return &Planner{provider: provider}
}

// Plan asks for up to n queries related to the topic. Planner failures are
// reported but never fatal: the caller falls back to searching the topic
// alone.
func (p *Planner) Plan(ctx context.Context, topic string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(`Generate a list of exactly %d concise search queries to find academic papers related to the following topic: %q. Return the queries as a JSON object with a single key 'queries' mapping to a list of strings.`, n, topic)

	completion, err := p.provider.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: 0.5,
		MaxTokens:   512,
	})
	if err != nil {
		return nil, fmt.Errorf("plan queries: %w", err)
	}

	raw, ok := llm.ExtractJSONObject(completion)
	if !ok {
		return nil, fmt.Errorf("plan queries: no JSON object in response")
	}
	var parsed queriesResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("plan queries: unparsable response: %w", err)
	}

	queries := CleanQueries(parsed.Queries)
	if len(queries) > n {
		queries = queries[:n]
	}
	return queries, nil
}

// CleanQueries normalizes model-produced queries: trims whitespace, splits
// "OR" alternatives into separate queries, strips "AND" connectives, and
// drops empties and duplicates while preserving first-seen order.
func CleanQueries(queries []string) []string {
	var expanded []string
	for _, q := range queries {
		for _, part := range strings.Split(q, " OR ") {
			part = strings.ReplaceAll(part, " AND ", " ")
			part = strings.TrimSpace(part)
			if part != "" {
				expanded = append(expanded, part)
			}
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, q := range expanded {
		lower := strings.ToLower(q)
		if !seen[lower] {
			seen[lower] = true
			out = append(out, q)
		}
	}
	return out
}
