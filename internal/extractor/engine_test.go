package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

type stubExtractor struct {
	text string
}

func (s *stubExtractor) Extract(_ context.Context, _ []byte) (string, map[string]string, error) {
	return s.text, map[string]string{"type": "stub"}, nil
}

func TestEngineRoutesByType(t *testing.T) {
	engine := NewEngine(&stubExtractor{text: "from ocr"})
	ctx := context.Background()

	text, metadata, err := engine.Extract(ctx, []byte("plain content"), document.TypeText)
	require.NoError(t, err)
	assert.Equal(t, "plain content", text)
	assert.Equal(t, "text", metadata["type"])

	text, metadata, err = engine.Extract(ctx, []byte{0xFF, 0xD8}, document.TypeImage)
	require.NoError(t, err)
	assert.Equal(t, "from ocr", text)
	assert.Equal(t, "stub", metadata["type"])
}

func TestEngineUnknownTypeFallsBackToText(t *testing.T) {
	engine := NewEngine(&stubExtractor{})

	text, metadata, err := engine.Extract(context.Background(), []byte("raw bytes"), document.TypeUnknown)
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", text)
	assert.Equal(t, "text", metadata["type"])
}

func TestTextExtractorMetadata(t *testing.T) {
	extractor := &TextExtractor{}

	text, metadata, err := extractor.Extract(context.Background(), []byte("line one\nline two"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
	assert.Equal(t, "17", metadata["characters"])
	assert.Equal(t, "2", metadata["lines"])
}

func TestProcessingErrorMessage(t *testing.T) {
	err := &ProcessingError{Message: "unreadable input"}
	assert.Equal(t, "unreadable input", err.Error())
}
