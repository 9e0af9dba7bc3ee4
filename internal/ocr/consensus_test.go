package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectNoResults(t *testing.T) {
	result := Select(nil)
	assert.Equal(t, "none", result.Method)
	assert.Empty(t, result.FinalText)
	assert.Zero(t, result.Confidence)
}

func TestSelectSingleHighConfidence(t *testing.T) {
	results := []Result{
		{EngineID: "tesseract", RawText: "hello world", MeanConfidence: 0.95},
	}
	selected := Select(results)
	assert.Equal(t, "tesseract", selected.Method)
	assert.Equal(t, "hello world", selected.FinalText)
	assert.Equal(t, 0.95, selected.Confidence)
	assert.Len(t, selected.Contributing, 1)
}

func TestSelectBestAboveThreshold(t *testing.T) {
	// A single confident engine wins outright; no consensus attempted.
	results := []Result{
		{EngineID: "tesseract", RawText: "good text", MeanConfidence: 0.91},
		{EngineID: "easyocr", RawText: "qood текt", MeanConfidence: 0.55},
	}
	selected := Select(results)
	assert.Equal(t, "tesseract", selected.Method)
	assert.Equal(t, "good text", selected.FinalText)
}

func TestSelectTieKeepsFirstSeen(t *testing.T) {
	results := []Result{
		{EngineID: "tesseract", RawText: "first", MeanConfidence: 0.9},
		{EngineID: "easyocr", RawText: "second", MeanConfidence: 0.9},
	}
	selected := Select(results)
	assert.Equal(t, "tesseract", selected.Method)
	assert.Equal(t, "first", selected.FinalText)
}

func TestSelectConsensusWhenAllLow(t *testing.T) {
	// Below threshold with multiple engines: length-weighted scoring
	// prefers the longer text despite slightly lower confidence.
	long := strings.Repeat("substantial recognized text ", 10)
	results := []Result{
		{EngineID: "tesseract", RawText: "short", MeanConfidence: 0.75},
		{EngineID: "easyocr", RawText: long, MeanConfidence: 0.70},
	}
	selected := Select(results)
	assert.Equal(t, "consensus", selected.Method)
	assert.Equal(t, long, selected.FinalText)
	// Reported confidence stays that of the best single engine.
	assert.Equal(t, 0.75, selected.Confidence)
}

func TestSelectLowSingleEngineNoConsensus(t *testing.T) {
	// One engine only: nothing to build a consensus from.
	results := []Result{
		{EngineID: "tesseract", RawText: "uncertain", MeanConfidence: 0.4},
	}
	selected := Select(results)
	assert.Equal(t, "tesseract", selected.Method)
	assert.Equal(t, "uncertain", selected.FinalText)
}

func TestConsensusSkipsEmptyText(t *testing.T) {
	results := []Result{
		{EngineID: "tesseract", RawText: "", MeanConfidence: 0.7},
		{EngineID: "easyocr", RawText: "actual content here", MeanConfidence: 0.5},
	}
	selected := Select(results)
	assert.Equal(t, "consensus", selected.Method)
	assert.Equal(t, "actual content here", selected.FinalText)
}

func TestConsensusAllEmptyFallsBackToBest(t *testing.T) {
	results := []Result{
		{EngineID: "tesseract", RawText: "", MeanConfidence: 0.3},
		{EngineID: "easyocr", RawText: "", MeanConfidence: 0.2},
	}
	selected := Select(results)
	assert.Equal(t, "tesseract", selected.Method)
	assert.Equal(t, "", selected.FinalText)
}
