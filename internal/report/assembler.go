// Package report assembles the final survey document and converts it to PDF.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlindgren/litsurvey/internal/model"
)

// Assemble joins the title, the drafted sections in outline order and the
// rendered reference block into one Markdown document. Assembly is
// deterministic for the same inputs.
func Assemble(topic string, sections []model.SectionDraft, references string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: A Literature Survey\n\n", strings.TrimSpace(topic))
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Name, strings.TrimSpace(s.Text))
	}
	b.WriteString(strings.TrimSpace(references))
	b.WriteString("\n")
	return b.String()
}

// Slug reduces a topic to a filesystem-safe stem for output paths:
// lowercase, alphanumeric runs joined by underscores.
func Slug(topic string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(topic)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		s = "survey"
	}
	return s
}

// WriteMarkdown writes the document under dir as <slug>_survey.md, creating
// the directory if needed, and returns the written path.
func WriteMarkdown(dir, topic, document string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, Slug(topic)+"_survey.md")
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
