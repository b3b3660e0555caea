package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewProvider(t *testing.T) {
	cases := []struct {
		provider string
		apiKey   string
		wantErr  bool
	}{
		{"openai", "sk-test", false},
		{"openai", "", true},
		{"anthropic", "sk-ant", false},
		{"claude", "sk-ant", false},
		{"anthropic", "", true},
		{"ollama", "", false},
		{"", "", true},
		{"bogus", "key", true},
	}

	for _, c := range cases {
		_, err := NewProvider(Config{Provider: c.provider, APIKey: c.apiKey})
		if (err != nil) != c.wantErr {
			t.Errorf("NewProvider(%q, key=%q): err=%v, wantErr=%v", c.provider, c.apiKey, err, c.wantErr)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"is_relevant": true}`, `{"is_relevant": true}`, true},
		{"Sure! Here you go:\n```json\n{\"queries\": [\"a\"]}\n```", `{"queries": ["a"]}`, true},
		{`prefix {"a": {"b": 1}} suffix`, `{"a": {"b": 1}}`, true},
		{`{"s": "brace } in string"}`, `{"s": "brace } in string"}`, true},
		{`{"s": "escaped \" quote}"}`, `{"s": "escaped \" quote}"}`, true},
		{`no json here`, ``, false},
		{`{"unterminated": true`, ``, false},
	}

	for _, c := range cases {
		got, ok := ExtractJSONObject(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ExtractJSONObject(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestAnthropicComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "sk-ant" {
			t.Errorf("expected api key header, got %q", got)
		}
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "hello there"}], "model": "m"}`)
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(Config{APIKey: "sk-ant", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	out, err := p.Complete(context.Background(), Request{Prompt: "hi", MaxTokens: 10})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "hello there" {
		t.Errorf("expected 'hello there', got %q", out)
	}
}

func TestOllamaComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"model": "llama3", "response": "  ok  ", "done": true}`)
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	out, err := p.Complete(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "ok" {
		t.Errorf("expected trimmed 'ok', got %q", out)
	}
}

func TestOllamaRequiresModel(t *testing.T) {
	p, _ := NewOllamaProvider(Config{})
	if _, err := p.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Error("expected an error when no model is configured")
	}
}
