package pipeline

import (
	"strings"
	"testing"

	"github.com/mlindgren/litsurvey/internal/model"
)

func TestNewRequiresKnownProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "carrier-pigeon"

	_, err := New(Config{Model: cfg})
	if err == nil || !strings.Contains(err.Error(), "llm provider") {
		t.Fatalf("err = %v, want provider error", err)
	}
}

func TestNewWiresDefaults(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "sk-test"

	p, err := New(Config{Model: cfg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.provider == nil || p.loop == nil || p.engine == nil || p.planner == nil {
		t.Error("pipeline left a stage unwired")
	}
	if p.logf == nil {
		t.Error("nil Logf must be replaced with a no-op")
	}
	if p.config.Model.Search.TargetPapers != 25 {
		t.Errorf("TargetPapers = %d, want default 25", p.config.Model.Search.TargetPapers)
	}
}
