package report

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Converter turns the Markdown document into a PDF via pandoc with the
// weasyprint engine. Both binaries are host tools; Preflight checks for
// them before any work is spent, and Convert assumes Preflight passed.
type Converter struct {
	// lookPath and run are injectable so tests need no host binaries.
	lookPath func(file string) (string, error)
	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewConverter returns a converter backed by the host's exec environment.
func NewConverter() *Converter {
	return &Converter{
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// Preflight verifies pandoc and weasyprint are on PATH. The error lists
// every missing tool with an install pointer and the manual command a user
// can run once the tools are present.
func (c *Converter) Preflight(mdPath, pdfPath string) error {
	var missing []string
	if _, err := c.lookPath("pandoc"); err != nil {
		missing = append(missing, "pandoc (https://pandoc.org/installing.html)")
	}
	if _, err := c.lookPath("weasyprint"); err != nil {
		missing = append(missing, "weasyprint (https://doc.courtbouillon.org/weasyprint/stable/first_steps.html, e.g. pip install weasyprint)")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("PDF conversion needs tools not found on PATH:\n  %s\nafter installing them, convert manually with:\n  pandoc %s -o %s --pdf-engine=weasyprint",
		strings.Join(missing, "\n  "), mdPath, pdfPath)
}

// Convert renders mdPath to pdfPath. The Markdown file is the source of
// truth and survives regardless of conversion outcome.
func (c *Converter) Convert(ctx context.Context, mdPath, pdfPath string) error {
	out, err := c.run(ctx, "pandoc", mdPath, "-o", pdfPath, "--pdf-engine=weasyprint")
	if err != nil {
		return fmt.Errorf("pandoc: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
