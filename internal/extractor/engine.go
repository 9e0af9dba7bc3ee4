// Package extractor recovers text from uploaded documents. Each input
// format has its own extractor; the engine routes by document type.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

// ProcessingError is a non-retryable extraction failure: the input
// itself is malformed or empty, so retrying the same bytes cannot help.
// The workflow layer excludes this type from activity retry policies.
type ProcessingError struct {
	Message string
}

func (e *ProcessingError) Error() string {
	return e.Message
}

// Extractor recovers text and format metadata from raw document bytes
type Extractor interface {
	Extract(ctx context.Context, content []byte) (string, map[string]string, error)
}

// Engine routes extraction by document type
type Engine struct {
	extractors map[document.Type]Extractor
}

// NewEngine builds the format router. The image extractor is injected
// because it carries the OCR pipeline; the others are self-contained.
func NewEngine(images Extractor) *Engine {
	return &Engine{
		extractors: map[document.Type]Extractor{
			document.TypeText:  &TextExtractor{},
			document.TypeHTML:  &HTMLExtractor{},
			document.TypePDF:   &PDFExtractor{MaxPages: 1000},
			document.TypeDOCX:  &DOCXExtractor{},
			document.TypeImage: images,
		},
	}
}

// Extract runs the extractor registered for the document type. Unknown
// types fall back to plain text extraction.
func (e *Engine) Extract(ctx context.Context, content []byte, docType document.Type) (string, map[string]string, error) {
	extractor, ok := e.extractors[docType]
	if !ok {
		extractor = e.extractors[document.TypeText]
	}
	return extractor.Extract(ctx, content)
}

// TextExtractor handles plain text files
type TextExtractor struct{}

func (t *TextExtractor) Extract(_ context.Context, content []byte) (string, map[string]string, error) {
	text := string(content)
	metadata := map[string]string{
		"type":       "text",
		"characters": fmt.Sprintf("%d", len(text)),
		"lines":      fmt.Sprintf("%d", strings.Count(text, "\n")+1),
	}
	return text, metadata, nil
}
