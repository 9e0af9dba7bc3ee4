package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls the native text layer out of a PDF. Scanned PDFs
// without a text layer yield a ProcessingError; the caller decides
// whether to fall back to rasterization + OCR.
type PDFExtractor struct {
	MaxPages int
}

// Extract returns the native text with per-page markers. Pages are
// separated by "--- Page N ---" headers so downstream consumers can
// rebuild page boundaries; blank pages get no marker.
func (p *PDFExtractor) Extract(ctx context.Context, content []byte) (string, map[string]string, error) {
	metadata := map[string]string{
		"type": "pdf",
		"size": fmt.Sprintf("%d", len(content)),
	}

	if len(content) < 4 || string(content[:4]) != "%PDF" {
		head := content
		if len(head) > 20 {
			head = head[:20]
		}
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("not a valid PDF file - content starts with: %q", string(head)),
		}
	}

	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("failed to parse PDF: %v", err),
		}
	}

	var builder strings.Builder
	extracted := 0
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", metadata, err
		}
		if p.MaxPages > 0 && i > p.MaxPages {
			break
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(pageText) == "" {
			continue
		}
		fmt.Fprintf(&builder, "\n--- Page %d ---\n%s\n", i, pageText)
		extracted++
	}

	text := strings.TrimSpace(builder.String())
	metadata["pages"] = fmt.Sprintf("%d", doc.NumPage())
	metadata["extracted_pages"] = fmt.Sprintf("%d", extracted)
	metadata["text_length"] = fmt.Sprintf("%d", len(text))

	if text == "" {
		return "", metadata, &ProcessingError{
			Message: "PDF contains no extractable text",
		}
	}
	metadata["status"] = "success"
	return text, metadata, nil
}
