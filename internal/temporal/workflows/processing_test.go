package workflows

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/infinity-9427/IntelliDoc-AI/internal/analysis"
	"github.com/infinity-9427/IntelliDoc-AI/internal/extractor"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

// stubActivities records calls and returns canned results
type stubActivities struct {
	mu        sync.Mutex
	calls     []string
	progress  []ProgressInput
	failures  []FailureInput
	native    NativeExtractResult
	nativeErr error
	pages     []PageImage
	rasterErr error
	pageText  map[int]string
	analysis  *analysis.Analysis
}

func (s *stubActivities) record(name string) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
}

func (s *stubActivities) called(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (s *stubActivities) register(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivityWithOptions(func(ctx context.Context, input ProcessingInput) (NativeExtractResult, error) {
		s.record(ExtractNativeActivityName)
		return s.native, s.nativeErr
	}, activity.RegisterOptions{Name: ExtractNativeActivityName})

	env.RegisterActivityWithOptions(func(ctx context.Context, input ProcessingInput) (RasterizeResult, error) {
		s.record(RasterizeActivityName)
		return RasterizeResult{Pages: s.pages}, s.rasterErr
	}, activity.RegisterOptions{Name: RasterizeActivityName})

	env.RegisterActivityWithOptions(func(ctx context.Context, input OCRPageInput) (OCRPageResult, error) {
		s.record(OCRPageActivityName)
		return OCRPageResult{
			Text:       s.pageText[input.Page.Number],
			Method:     "tesseract",
			Confidence: 0.9,
		}, nil
	}, activity.RegisterOptions{Name: OCRPageActivityName})

	env.RegisterActivityWithOptions(func(ctx context.Context, input AnalyzeInput) (*analysis.Analysis, error) {
		s.record(AnalyzeActivityName)
		return s.analysis, nil
	}, activity.RegisterOptions{Name: AnalyzeActivityName})

	env.RegisterActivityWithOptions(func(ctx context.Context, input ReportInput) (*document.AnalysisResult, error) {
		s.record(BuildReportActivityName)
		result := &document.AnalysisResult{
			JobID:          input.JobID,
			Filename:       input.Filename,
			FileType:       input.FileType,
			ExtractedText:  input.Text,
			TextConfidence: input.TextConfidence,
			PageCount:      input.PageCount,
		}
		if input.Analysis != nil {
			result.Classification = input.Analysis.Classification
			result.Summary = input.Analysis.Summary
		}
		return result, nil
	}, activity.RegisterOptions{Name: BuildReportActivityName})

	env.RegisterActivityWithOptions(func(ctx context.Context, input ProgressInput) error {
		s.mu.Lock()
		s.progress = append(s.progress, input)
		s.mu.Unlock()
		return nil
	}, activity.RegisterOptions{Name: PublishProgressActivityName})

	env.RegisterActivityWithOptions(func(ctx context.Context, input FailureInput) error {
		s.mu.Lock()
		s.failures = append(s.failures, input)
		s.mu.Unlock()
		return nil
	}, activity.RegisterOptions{Name: MarkFailedActivityName})
}

func runWorkflow(t *testing.T, stub *stubActivities, input ProcessingInput) (*document.AnalysisResult, error) {
	t.Helper()
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentProcessingWorkflow)
	stub.register(env)

	env.ExecuteWorkflow(DocumentProcessingWorkflow, input)
	require.True(t, env.IsWorkflowCompleted())

	if err := env.GetWorkflowError(); err != nil {
		return nil, err
	}
	var result *document.AnalysisResult
	require.NoError(t, env.GetWorkflowResult(&result))
	return result, nil
}

func TestWorkflowPlainTextDocument(t *testing.T) {
	stub := &stubActivities{
		native: NativeExtractResult{
			Text:     "Quarterly revenue exceeded expectations.",
			Metadata: map[string]string{"type": "text"},
		},
		analysis: &analysis.Analysis{
			Classification: &document.Classification{Type: "report", Confidence: 0.8},
			Summary:        "A quarterly report.",
		},
	}

	result, err := runWorkflow(t, stub, ProcessingInput{
		JobID:    "job-1",
		Filename: "report.txt",
		FileType: document.TypeText,
		Content:  []byte("Quarterly revenue exceeded expectations."),
	})
	require.NoError(t, err)

	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, "Quarterly revenue exceeded expectations.", result.ExtractedText)
	assert.Equal(t, 1.0, result.TextConfidence)
	assert.Equal(t, "report", result.Classification.Type)

	assert.False(t, stub.called(RasterizeActivityName))
	assert.False(t, stub.called(OCRPageActivityName))
	assert.Empty(t, stub.failures)
}

func TestWorkflowPDFRunsOCRPerPage(t *testing.T) {
	stub := &stubActivities{
		native: NativeExtractResult{
			Text:     "short",
			Metadata: map[string]string{"pages": "2"},
		},
		pages: []PageImage{
			{Number: 1, PNG: []byte("png1")},
			{Number: 2, PNG: []byte("png2")},
		},
		pageText: map[int]string{
			1: "First page text recovered by recognition, long enough to carry the result.",
			2: "Second page text also recovered.",
		},
		analysis: &analysis.Analysis{Summary: "Scanned document."},
	}

	result, err := runWorkflow(t, stub, ProcessingInput{
		JobID:    "job-2",
		Filename: "scan.pdf",
		FileType: document.TypePDF,
		Content:  []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.True(t, stub.called(RasterizeActivityName))
	assert.True(t, stub.called(OCRPageActivityName))
	assert.Equal(t, 2, result.PageCount)
	assert.Contains(t, result.ExtractedText, "--- OCR Page 1 (Method: tesseract) ---")
	assert.Contains(t, result.ExtractedText, "Second page text also recovered.")
	assert.InDelta(t, 0.9, result.TextConfidence, 0.001)

	// Workflow-level milestones around text combination
	stages := make([]string, 0, len(stub.progress))
	for _, p := range stub.progress {
		stages = append(stages, p.Stage)
	}
	assert.Contains(t, stages, "combining")
	assert.Contains(t, stages, "postprocessing")
}

func TestWorkflowPDFNativeTextPreferred(t *testing.T) {
	longNative := strings.Repeat("Native extracted sentence. ", 10)
	stub := &stubActivities{
		native: NativeExtractResult{
			Text:     longNative,
			Metadata: map[string]string{"pages": "1"},
		},
		pages:    []PageImage{{Number: 1, PNG: []byte("png1")}},
		pageText: map[int]string{1: strings.Repeat("OCR recovered text for supplement. ", 3)},
		analysis: &analysis.Analysis{},
	}

	result, err := runWorkflow(t, stub, ProcessingInput{
		JobID:    "job-3",
		FileType: document.TypePDF,
		Content:  []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.Contains(t, result.ExtractedText, "Native extracted sentence.")
	assert.Contains(t, result.ExtractedText, "--- OCR Supplementary ---")
	assert.Equal(t, 1.0, result.TextConfidence)
}

func TestWorkflowRasterizeFailureDegradesToNative(t *testing.T) {
	stub := &stubActivities{
		native: NativeExtractResult{
			Text:     "Native text from a PDF without a rasterizer installed.",
			Metadata: map[string]string{"pages": "3"},
		},
		rasterErr: &extractor.ProcessingError{Message: "pdftoppm is not installed"},
		analysis:  &analysis.Analysis{},
	}

	result, err := runWorkflow(t, stub, ProcessingInput{
		JobID:    "job-4",
		FileType: document.TypePDF,
		Content:  []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.False(t, stub.called(OCRPageActivityName))
	assert.Equal(t, "Native text from a PDF without a rasterizer installed.", result.ExtractedText)
	assert.Equal(t, 3, result.PageCount)
	assert.Empty(t, stub.failures)
}

func TestWorkflowImageUsesExtractorConfidence(t *testing.T) {
	stub := &stubActivities{
		native: NativeExtractResult{
			Text:     "Text recognized from the photo.",
			Metadata: map[string]string{"confidence": "0.82", "method": "tesseract"},
		},
		analysis: &analysis.Analysis{},
	}

	result, err := runWorkflow(t, stub, ProcessingInput{
		JobID:    "job-5",
		FileType: document.TypeImage,
		Content:  []byte("fakepng"),
	})
	require.NoError(t, err)

	assert.False(t, stub.called(RasterizeActivityName))
	assert.Equal(t, 1, result.PageCount)
	assert.InDelta(t, 0.82, result.TextConfidence, 0.001)
}

func TestWorkflowScannedPDFFallsBackToOCR(t *testing.T) {
	stub := &stubActivities{
		nativeErr: &extractor.ProcessingError{Message: "PDF contains no extractable text"},
		pages: []PageImage{
			{Number: 1, PNG: []byte("png1")},
		},
		pageText: map[int]string{
			1: "Invoice total recovered from the scanned page.",
		},
		analysis: &analysis.Analysis{Summary: "A scanned invoice."},
	}

	result, err := runWorkflow(t, stub, ProcessingInput{
		JobID:    "job-6",
		Filename: "scan.pdf",
		FileType: document.TypePDF,
		Content:  []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.True(t, stub.called(RasterizeActivityName))
	assert.True(t, stub.called(OCRPageActivityName))
	assert.Contains(t, result.ExtractedText, "Invoice total recovered from the scanned page.")
	assert.InDelta(t, 0.9, result.TextConfidence, 0.001)
	assert.Empty(t, stub.failures)
}

func TestWorkflowExtractionFailureMarksJobFailed(t *testing.T) {
	stub := &stubActivities{
		nativeErr: &extractor.ProcessingError{Message: "failed to open Word document"},
	}

	_, err := runWorkflow(t, stub, ProcessingInput{
		JobID:    "job-7",
		FileType: document.TypeDOCX,
		Content:  []byte("garbage"),
	})
	require.Error(t, err)

	require.Len(t, stub.failures, 1)
	assert.Equal(t, "job-7", stub.failures[0].JobID)
	assert.Equal(t, "text_extraction", stub.failures[0].Stage)
	assert.Contains(t, stub.failures[0].Error, "failed to open")

	assert.False(t, stub.called(AnalyzeActivityName))
	assert.False(t, stub.called(BuildReportActivityName))
}
