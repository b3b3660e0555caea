package model

import "time"

// Config holds the complete litsurvey configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Planner     PlannerConfig     `yaml:"planner" mapstructure:"planner"`
	Digest      DigestConfig      `yaml:"digest" mapstructure:"digest"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Sections    []SectionConfig   `yaml:"sections" mapstructure:"sections"`
}

// HTTPConfig configures outbound HTTP behaviour for fetching full texts.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// SearchConfig configures the paper search provider.
type SearchConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	PageSize     int    `yaml:"page_size" mapstructure:"page_size"`
	MaxPages     int    `yaml:"max_pages" mapstructure:"max_pages"` // hard cap across the whole run
	TargetPapers int    `yaml:"target_papers" mapstructure:"target_papers"`
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
}

// LLMConfig configures the text-completion backend.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PlannerConfig configures search-query expansion. Queries is the number of
// extra queries to generate on top of the topic itself; 0 disables planning.
type PlannerConfig struct {
	Queries int `yaml:"queries" mapstructure:"queries"`
}

// DigestConfig configures per-paper topic-focused summarisation.
type DigestConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// ConcurrencyConfig bounds the per-page fan-out widths.
type ConcurrencyConfig struct {
	ClassifyWorkers int `yaml:"classify_workers" mapstructure:"classify_workers"`
	IngestWorkers   int `yaml:"ingest_workers" mapstructure:"ingest_workers"`
	DraftWorkers    int `yaml:"draft_workers" mapstructure:"draft_workers"`
}

// OutputConfig configures where and how results are written.
type OutputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	RenderPDF bool   `yaml:"render_pdf" mapstructure:"render_pdf"`
	Verbose   bool   `yaml:"verbose" mapstructure:"verbose"`
}

// CacheConfig configures the in-memory classifier verdict cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// SectionConfig names one section of the survey outline and what it should
// cover.
type SectionConfig struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Focus string `yaml:"focus" mapstructure:"focus"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "litsurvey/0.1 (+https://github.com/mlindgren/litsurvey)",
			MaxBodyBytes: 20_000_000,
		},
		Search: SearchConfig{
			BaseURL:      "https://api.semanticscholar.org/graph/v1",
			PageSize:     10,
			MaxPages:     50,
			TargetPapers: 25,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "",
			Timeout:   60,
			MaxTokens: 10_000,
		},
		Planner: PlannerConfig{Queries: 0},
		Digest:  DigestConfig{Enabled: true},
		Concurrency: ConcurrencyConfig{
			ClassifyWorkers: 4,
			IngestWorkers:   4,
			DraftWorkers:    2,
		},
		Output: OutputConfig{
			Dir:       "surveys",
			RenderPDF: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Sections: DefaultOutline(),
	}
}

// DefaultOutline is the section plan used when none is configured.
func DefaultOutline() []SectionConfig {
	return []SectionConfig{
		{Name: "Introduction", Focus: "the significance and context of the topic"},
		{Name: "Approaches and Methods", Focus: "the main approaches, methods and techniques the papers describe"},
		{Name: "Findings and Open Problems", Focus: "key findings, points of disagreement, and open problems"},
		{Name: "Conclusion", Focus: "a synthesis of the key points discussed in the survey"},
	}
}
