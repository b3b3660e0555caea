package classify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mlindgren/litsurvey/internal/cache"
	"github.com/mlindgren/litsurvey/internal/llm"
	"github.com/mlindgren/litsurvey/internal/model"
)

// fakeProvider returns canned completions and counts calls.
type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Name() string                       { return "fake" }
func (f *fakeProvider) IsAvailable(_ context.Context) bool { return true }
func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	f.calls++
	return f.response, f.err
}

var paper = model.PaperRecord{
	ID:       "p1",
	Title:    "A Study of Things",
	Abstract: "We study things.",
	Year:     2021,
	Authors:  []model.Author{{First: "Bob", Last: "Smith"}},
}

func TestClassifyRelevant(t *testing.T) {
	c := New(&fakeProvider{response: `{"is_relevant": true}`}, nil, 0)

	relevant, err := c.Classify(context.Background(), "things", paper)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !relevant {
		t.Error("expected relevant verdict")
	}
}

func TestClassifyNotRelevant(t *testing.T) {
	c := New(&fakeProvider{response: "```json\n{\"is_relevant\": false}\n```"}, nil, 0)

	relevant, err := c.Classify(context.Background(), "things", paper)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if relevant {
		t.Error("expected not-relevant verdict")
	}
}

func TestClassifyUnparsableDefaultsToNotRelevant(t *testing.T) {
	cases := []string{
		"I think this paper is quite relevant to the topic.",
		"",
		`{"is_relevant": "maybe"`,
	}
	for _, response := range cases {
		c := New(&fakeProvider{response: response}, nil, 0)
		relevant, err := c.Classify(context.Background(), "things", paper)
		if relevant {
			t.Errorf("unparsable response %q must not be relevant", response)
		}
		if err == nil {
			t.Errorf("unparsable response %q should report a diagnostic error", response)
		}
	}
}

func TestClassifyProviderErrorDefaultsToNotRelevant(t *testing.T) {
	c := New(&fakeProvider{err: fmt.Errorf("boom")}, nil, 0)

	relevant, err := c.Classify(context.Background(), "things", paper)
	if relevant {
		t.Error("provider failure must not be relevant")
	}
	if err == nil {
		t.Error("provider failure should report a diagnostic error")
	}
}

func TestClassifyCachesVerdicts(t *testing.T) {
	provider := &fakeProvider{response: `{"is_relevant": true}`}
	c := New(provider, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	for i := 0; i < 3; i++ {
		relevant, err := c.Classify(context.Background(), "things", paper)
		if err != nil || !relevant {
			t.Fatalf("classify #%d: relevant=%v err=%v", i, relevant, err)
		}
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call with caching, got %d", provider.calls)
	}

	// A different topic is a different judgment.
	if _, err := c.Classify(context.Background(), "other topic", paper); err != nil {
		t.Fatalf("classify other topic: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("expected cache miss for new topic, got %d calls", provider.calls)
	}
}
