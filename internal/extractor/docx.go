package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DOCXExtractor handles DOCX file extraction
type DOCXExtractor struct{}

func (d *DOCXExtractor) Extract(_ context.Context, content []byte) (string, map[string]string, error) {
	metadata := map[string]string{
		"type": "docx",
		"size": fmt.Sprintf("%d", len(content)),
	}

	// DOCX is a ZIP container; check the signature before parsing.
	if len(content) < 4 || content[0] != 0x50 || content[1] != 0x4B {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("not a valid DOCX file - missing ZIP signature: %x", head(content, 4)),
		}
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("failed to parse DOCX: %v", err),
		}
	}

	text := stripDocxMarkup(doc.Editable().GetContent())
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	metadata["text_length"] = fmt.Sprintf("%d", len(text))
	metadata["word_count"] = fmt.Sprintf("%d", len(strings.Fields(text)))

	if text == "" {
		return "", metadata, &ProcessingError{
			Message: "DOCX document contains no extractable text",
		}
	}
	metadata["status"] = "success"
	return text, metadata, nil
}

// stripDocxMarkup flattens the WordprocessingML body to plain text:
// paragraph ends become newlines, every other tag is dropped.
func stripDocxMarkup(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func head(content []byte, n int) []byte {
	if len(content) < n {
		return content
	}
	return content[:n]
}
