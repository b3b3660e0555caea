package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlindgren/litsurvey/internal/model"
)

func TestAssembleOrdersSectionsBeforeReferences(t *testing.T) {
	sections := []model.SectionDraft{
		{Name: "Introduction", Text: "intro prose [Smith2021]"},
		{Name: "Conclusion", Text: "closing prose"},
	}
	doc := Assemble("graph neural networks", sections, "## References\n\n- **[Smith2021]** Smith, J. (2021). Work.\n")

	wantOrder := []string{
		"# graph neural networks: A Literature Survey",
		"## Introduction",
		"intro prose [Smith2021]",
		"## Conclusion",
		"## References",
		"[Smith2021]",
	}
	pos := -1
	for _, marker := range wantOrder {
		idx := strings.Index(doc[pos+1:], marker)
		if idx < 0 {
			if !strings.Contains(doc, marker) {
				t.Fatalf("document missing %q", marker)
			}
			t.Errorf("%q appears out of order", marker)
			continue
		}
		pos += 1 + idx
	}

	if doc != Assemble("graph neural networks", sections, "## References\n\n- **[Smith2021]** Smith, J. (2021). Work.\n") {
		t.Error("assembly must be deterministic")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Graph Neural Networks", "graph_neural_networks"},
		{"  LLMs: a survey!  ", "llms_a_survey"},
		{"C++ metaprogramming", "c_metaprogramming"},
		{"---", "survey"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteMarkdown(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := WriteMarkdown(dir, "Quantum Widgets", "# doc\n")
	if err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	if filepath.Base(path) != "quantum_widgets_survey.md" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "# doc\n" {
		t.Errorf("read back %q, %v", data, err)
	}
}

func TestPreflightNamesMissingTools(t *testing.T) {
	c := &Converter{lookPath: func(file string) (string, error) {
		if file == "pandoc" {
			return "/usr/bin/pandoc", nil
		}
		return "", errors.New("not found")
	}}

	err := c.Preflight("out/x_survey.md", "out/x_survey.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if strings.Contains(msg, "pandoc (") {
		t.Error("pandoc is present and should not be listed as missing")
	}
	for _, want := range []string{"weasyprint", "pandoc out/x_survey.md -o out/x_survey.pdf --pdf-engine=weasyprint"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q: %s", want, msg)
		}
	}
}

func TestPreflightAllToolsPresent(t *testing.T) {
	c := &Converter{lookPath: func(string) (string, error) { return "/usr/bin/tool", nil }}
	if err := c.Preflight("a.md", "a.pdf"); err != nil {
		t.Fatalf("Preflight: %v", err)
	}
}

func TestConvertSurfacesPandocOutput(t *testing.T) {
	var gotArgs []string
	c := &Converter{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte("weasyprint blew up"), errors.New("exit status 1")
	}}

	err := c.Convert(context.Background(), "a.md", "a.pdf")
	if err == nil || !strings.Contains(err.Error(), "weasyprint blew up") {
		t.Fatalf("err = %v, want pandoc output included", err)
	}
	want := []string{"pandoc", "a.md", "-o", "a.pdf", "--pdf-engine=weasyprint"}
	if len(gotArgs) != len(want) {
		t.Fatalf("args = %v", gotArgs)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Errorf("arg[%d] = %q, want %q", i, gotArgs[i], want[i])
		}
	}
}
