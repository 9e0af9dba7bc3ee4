package ocr

import (
	"context"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	id     string
	status EngineStatus
	result Result
}

func (f *fakeEngine) ID() string           { return f.id }
func (f *fakeEngine) Status() EngineStatus { return f.status }
func (f *fakeEngine) Recognize(_ context.Context, _ image.Image) Result {
	r := f.result
	r.EngineID = f.id
	return r
}

type upperProcessor struct{}

func (upperProcessor) Process(text string) string { return strings.ToUpper(text) }

func TestRegistryReadyFiltersByStatus(t *testing.T) {
	reg := NewRegistry(
		&fakeEngine{id: "tesseract", status: StatusReady},
		&fakeEngine{id: "easyocr", status: StatusUnavailable},
		&fakeEngine{id: "paddleocr", status: StatusReady},
	)

	ready := reg.Ready()
	require.Len(t, ready, 2)
	assert.Equal(t, "tesseract", ready[0].ID())
	assert.Equal(t, "paddleocr", ready[1].ID())
	assert.Len(t, reg.All(), 3)
}

func TestRegistryStats(t *testing.T) {
	reg := NewRegistry(
		&fakeEngine{id: "tesseract", status: StatusReady},
		&fakeEngine{id: "easyocr", status: StatusFailed},
	)
	assert.Equal(t, map[string]string{
		"tesseract": "ready",
		"easyocr":   "failed",
	}, reg.Stats())
}

func TestRecognizePageNoEngines(t *testing.T) {
	svc := NewService(NewRegistry(), nil)
	result := svc.RecognizePage(context.Background(), syntheticPage(100, 100))
	assert.Equal(t, "none", result.Method)
	assert.Empty(t, result.FinalText)
}

func TestRecognizePageSelectsBestEngine(t *testing.T) {
	reg := NewRegistry(
		&fakeEngine{id: "tesseract", status: StatusReady,
			result: Result{RawText: "primary text", MeanConfidence: 0.92, Status: StatusReady}},
		&fakeEngine{id: "easyocr", status: StatusReady,
			result: Result{RawText: "alternate text", MeanConfidence: 0.60, Status: StatusReady}},
	)
	svc := NewService(reg, nil)

	result := svc.RecognizePage(context.Background(), syntheticPage(100, 100))
	assert.Equal(t, "tesseract", result.Method)
	assert.Equal(t, "primary text", result.FinalText)
	assert.Len(t, result.Contributing, 2)
}

func TestRecognizePageSkipsUnavailableEngines(t *testing.T) {
	reg := NewRegistry(
		&fakeEngine{id: "tesseract", status: StatusUnavailable},
		&fakeEngine{id: "easyocr", status: StatusReady,
			result: Result{RawText: "only option", MeanConfidence: 0.5, Status: StatusReady}},
	)
	svc := NewService(reg, nil)

	result := svc.RecognizePage(context.Background(), syntheticPage(100, 100))
	assert.Equal(t, "easyocr", result.Method)
	assert.Len(t, result.Contributing, 1)
}

func TestRecognizePageAppliesProcessor(t *testing.T) {
	reg := NewRegistry(
		&fakeEngine{id: "tesseract", status: StatusReady,
			result: Result{RawText: "recognized", MeanConfidence: 0.9, Status: StatusReady}},
	)
	svc := NewService(reg, upperProcessor{})

	result := svc.RecognizePage(context.Background(), syntheticPage(100, 100))
	assert.Equal(t, "RECOGNIZED", result.FinalText)
	// Processor touches the text only, never the confidence.
	assert.Equal(t, 0.9, result.Confidence)
}

func TestRecognizePageEmptyTextSkipsProcessor(t *testing.T) {
	reg := NewRegistry(
		&fakeEngine{id: "tesseract", status: StatusReady,
			result: Result{RawText: "", MeanConfidence: 0, Status: StatusFailed, Err: "no text"}},
	)
	svc := NewService(reg, upperProcessor{})

	result := svc.RecognizePage(context.Background(), syntheticPage(100, 100))
	assert.Empty(t, result.FinalText)
}
