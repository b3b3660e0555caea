package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mlindgren/litsurvey/internal/model"
	"github.com/mlindgren/litsurvey/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	targetPapers int
	pageSize     int
	maxPages     int
	extraQueries int
	outputDir    string
	httpTimeout  time.Duration
	userAgent    string
	noPDF        bool
	noCache      bool
	noDigest     bool
	llmProvider  string
	llmModel     string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Build a literature survey for a topic",
	Long: `Run executes the full survey pipeline for a topic:
- Search Semantic Scholar for candidate papers, page by page
- Judge each paper's relevance with the configured LLM
- Fetch open-access full texts (falling back to abstracts)
- Draft the survey sections and cross-check every citation
- Write <topic>_survey.md and, when tooling allows, a PDF

Example:
  litsurvey run "diffusion models for protein design"
  litsurvey run "federated learning" --papers 15 --no-pdf
  litsurvey run "RISC-V verification" --llm-provider ollama --llm-model llama3`,
	Args: cobra.ExactArgs(1),
	RunE: runSurvey,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Retrieval flags
	runCmd.Flags().IntVar(&targetPapers, "papers", 25, "target number of relevant papers")
	runCmd.Flags().IntVar(&pageSize, "page-size", 10, "search results per page")
	runCmd.Flags().IntVar(&maxPages, "max-pages", 50, "hard cap on search pages across the whole run")
	runCmd.Flags().IntVar(&extraQueries, "queries", 0, "extra LLM-planned search queries (0 disables planning)")

	// HTTP flags
	runCmd.Flags().DurationVar(&httpTimeout, "timeout", 30*time.Second, "per-request HTTP timeout for full-text fetches")
	runCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent override")

	// Output flags
	runCmd.Flags().StringVar(&outputDir, "output-dir", "surveys", "directory for generated surveys")
	runCmd.Flags().BoolVar(&noPDF, "no-pdf", false, "skip PDF rendering, write Markdown only")

	// LLM flags
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the relevance verdict cache")
	runCmd.Flags().BoolVar(&noDigest, "no-digest", false, "skip per-paper topic digests")
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
}

func runSurvey(cmd *cobra.Command, args []string) error {
	topic := args[0]

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	if err := resolveAPIKeys(cfg); err != nil {
		return err
	}

	logf := func(string, ...any) {}
	if cfg.Output.Verbose {
		logf = func(format string, a ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", a...)
		}
	}

	p, err := pipeline.New(pipeline.Config{Model: cfg, Logf: logf})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Building survey: %s\n", topic)
	result, err := p.Run(ctx, topic)
	if err != nil {
		return fmt.Errorf("survey failed: %w", err)
	}

	fmt.Printf("✓ Survey written: %s (%d papers)\n", result.MarkdownPath, result.PaperCount)
	if result.PDFPath != "" {
		fmt.Printf("✓ PDF written: %s\n", result.PDFPath)
	}
	if !result.MetTarget {
		fmt.Printf("Note: found %d relevant papers, fewer than the %d requested.\n", result.PaperCount, cfg.Search.TargetPapers)
	}
	return nil
}

// loadConfig layers the config file over the defaults.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if viper.ConfigFileUsed() != "" {
		if err := viper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", viper.ConfigFileUsed(), err)
		}
	}
	return cfg, nil
}

// applyFlags layers explicitly set flags over the loaded config. Only flags
// the user actually passed win, so config-file values survive defaults.
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	set := cmd.Flags().Changed

	if set("papers") {
		cfg.Search.TargetPapers = targetPapers
	}
	if set("page-size") {
		cfg.Search.PageSize = pageSize
	}
	if set("max-pages") {
		cfg.Search.MaxPages = maxPages
	}
	if set("queries") {
		cfg.Planner.Queries = extraQueries
	}
	if set("timeout") {
		cfg.HTTP.Timeout = httpTimeout
	}
	if set("ua") && userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if set("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if set("no-pdf") {
		cfg.Output.RenderPDF = !noPDF
	}
	if set("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if set("no-digest") {
		cfg.Digest.Enabled = !noDigest
	}
	if set("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if set("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if verbose {
		cfg.Output.Verbose = true
	}
}

// resolveAPIKeys pulls credentials from the environment.
func resolveAPIKeys(cfg *model.Config) error {
	if cfg.Search.APIKey == "" {
		// Optional: unauthenticated Semantic Scholar access works at a
		// lower rate limit.
		cfg.Search.APIKey = os.Getenv("SEMANTIC_SCHOLAR_API_KEY")
	}

	if cfg.LLM.APIKey != "" {
		return nil
	}
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}
