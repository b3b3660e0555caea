// Package classify decides whether a paper is relevant to the survey topic.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlindgren/litsurvey/internal/cache"
	"github.com/mlindgren/litsurvey/internal/llm"
	"github.com/mlindgren/litsurvey/internal/model"
)

const systemPrompt = `You are an expert academic researcher. Your task is to determine whether a given academic paper is relevant to a specified topic. If it is not directly relevant to the topic, but is related to a closely related topic, consider it relevant.

You will be provided with the title and abstract of the paper, as well as the topic. Your response must be a JSON object with a single key 'is_relevant' mapping to a boolean value: true if the paper is relevant to the topic, false otherwise. Return only the JSON object.`

type verdict struct {
	IsRelevant bool `json:"is_relevant"`
}

// Classifier asks the text-completion backend for a strict binary relevance
// verdict. Judged papers are cached per (topic, identity) so a paper surfaced
// by multiple query streams is only classified once.
type Classifier struct {
	provider llm.Provider
	cache    cache.Cache
	cacheTTL time.Duration
}

// New creates a classifier. The cache may be nil to disable caching.
func New(provider llm.Provider, c cache.Cache, ttl time.Duration) *Classifier {
	return &Classifier{provider: provider, cache: c, cacheTTL: ttl}
}

// Classify reports whether the paper is relevant to the topic. One attempt
// per paper: an unparsable response is "not relevant", never a retry. The
// returned error is informational (for verbose logging); whenever it is
// non-nil the verdict is false.
func (c *Classifier) Classify(ctx context.Context, topic string, paper model.PaperRecord) (bool, error) {
	cacheKey := cache.Key("classify|" + topic + "|" + paper.ID)
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			return string(cached) == "true", nil
		}
	}

	prompt := fmt.Sprintf(`Determine if the following paper is relevant to the topic %q. Return your answer as a JSON object with a single key 'is_relevant' mapping to a boolean value.

<paper>
Title: %s
Authors: %s
Year: %s
Abstract: %s
</paper>`, topic, paper.Title, model.AuthorLine(paper.Authors), yearString(paper.Year), paper.Abstract)

	completion, err := c.provider.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: 0.0,
		MaxTokens:   32,
	})
	if err != nil {
		return false, fmt.Errorf("classify %s: %w", paper.ID, err)
	}

	relevant, err := parseVerdict(completion)
	if err != nil {
		// Fail safe: prefer under-inclusion over a crashed run or a
		// hallucinated acceptance.
		return false, fmt.Errorf("classify %s: %w", paper.ID, err)
	}

	if c.cache != nil {
		val := "false"
		if relevant {
			val = "true"
		}
		_ = c.cache.Set(cacheKey, []byte(val), c.cacheTTL)
	}
	return relevant, nil
}

func parseVerdict(completion string) (bool, error) {
	raw, ok := llm.ExtractJSONObject(completion)
	if !ok {
		return false, fmt.Errorf("no JSON object in verdict: %q", clip(completion, 120))
	}
	var v verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return false, fmt.Errorf("unparsable verdict: %w", err)
	}
	return v.IsRelevant, nil
}

func yearString(year int) string {
	if year <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d", year)
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
