package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfMagic is the byte signature served by anything that is actually a PDF,
// regardless of what the locator's extension or Content-Type claims.
var pdfMagic = []byte("%PDF-")

func looksLikePDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// pdfToText extracts plain text from PDF bytes.
func pdfToText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single damaged page should not discard the rest.
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	out := strings.TrimSpace(builder.String())
	if out == "" {
		return "", fmt.Errorf("no extractable text in pdf")
	}
	return out, nil
}
