package workflows

import (
	"strconv"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/infinity-9427/IntelliDoc-AI/internal/analysis"
	"github.com/infinity-9427/IntelliDoc-AI/internal/extractor"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

// ProcessingInput starts one document through the pipeline
type ProcessingInput struct {
	JobID    string        `json:"job_id"`
	Filename string        `json:"filename"`
	FileType document.Type `json:"file_type"`
	Content  []byte        `json:"content"`
}

// NativeExtractResult is the output of format-native text extraction
type NativeExtractResult struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// PageImage is one rasterized page, PNG-encoded for payload transport
type PageImage struct {
	Number int    `json:"number"`
	PNG    []byte `json:"png"`
}

// RasterizeResult carries the rendered pages of a PDF
type RasterizeResult struct {
	Pages []PageImage `json:"pages"`
}

// OCRPageInput runs recognition on one page
type OCRPageInput struct {
	JobID      string    `json:"job_id"`
	Page       PageImage `json:"page"`
	TotalPages int       `json:"total_pages"`
}

// OCRPageResult is the selected recognition outcome for one page
type OCRPageResult struct {
	Text       string  `json:"text"`
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
}

// AnalyzeInput runs AI analysis over the final extracted text
type AnalyzeInput struct {
	JobID string `json:"job_id"`
	Text  string `json:"text"`
}

// ReportInput assembles and publishes the final result
type ReportInput struct {
	JobID          string             `json:"job_id"`
	Filename       string             `json:"filename"`
	FileType       document.Type      `json:"file_type"`
	Text           string             `json:"text"`
	TextConfidence float64            `json:"text_confidence"`
	PageCount      int                `json:"page_count"`
	ProcessingTime float64            `json:"processing_time"`
	Analysis       *analysis.Analysis `json:"analysis"`
}

// ProgressInput publishes a progress milestone from workflow code
type ProgressInput struct {
	JobID    string `json:"job_id"`
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
}

// FailureInput marks the job as failed
type FailureInput struct {
	JobID string `json:"job_id"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Activity names for registration
const (
	ExtractNativeActivityName   = "ExtractNative"
	RasterizeActivityName       = "Rasterize"
	OCRPageActivityName         = "OCRPage"
	AnalyzeActivityName         = "Analyze"
	BuildReportActivityName     = "BuildReport"
	PublishProgressActivityName = "PublishProgress"
	MarkFailedActivityName      = "MarkFailed"
)

// DocumentProcessingWorkflow runs a document end to end: native
// extraction, OCR for PDFs and images, AI analysis, result assembly.
// Extraction failures caused by malformed input are not retried. A PDF
// whose native extraction fails (scanned documents have no text layer)
// still continues into rasterization and OCR.
func DocumentProcessingWorkflow(ctx workflow.Context, input ProcessingInput) (*document.AnalysisResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting document processing", "jobID", input.JobID, "filename", input.Filename, "type", input.FileType)

	started := workflow.Now(ctx)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			InitialInterval:        1 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			NonRetryableErrorTypes: []string{"ProcessingError", "*extractor.ProcessingError"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var native NativeExtractResult
	if err := workflow.ExecuteActivity(ctx, ExtractNativeActivityName, input).Get(ctx, &native); err != nil {
		if input.FileType != document.TypePDF {
			return nil, failJob(ctx, input.JobID, "text_extraction", err)
		}
		// Scanned PDFs have no text layer; OCR below is the real
		// extraction path for them.
		logger.Warn("Native extraction failed, continuing with OCR", "jobID", input.JobID, "error", err)
		native = NativeExtractResult{}
	}

	text := native.Text
	confidence := 1.0
	pageCount := parseCount(native.Metadata["pages"])

	switch input.FileType {
	case document.TypePDF:
		ocrText, ocrConfidence, pages := recognizePDFPages(ctx, input, logger)
		if pages > 0 {
			pageCount = pages
			text = extractor.CombineTextSources(native.Text, ocrText)
			confidence = combinedConfidence(native.Text, ocrConfidence)
		}

		if err := publishProgress(ctx, input.JobID, "combining", 75); err != nil {
			logger.Warn("Progress publish failed", "error", err)
		}
		if err := publishProgress(ctx, input.JobID, "postprocessing", 80); err != nil {
			logger.Warn("Progress publish failed", "error", err)
		}

	case document.TypeImage:
		// The image extractor already ran OCR; pick up its confidence
		if c, err := strconv.ParseFloat(native.Metadata["confidence"], 64); err == nil {
			confidence = c
		}
		pageCount = 1
	}

	var result *analysis.Analysis
	if err := workflow.ExecuteActivity(ctx, AnalyzeActivityName, AnalyzeInput{
		JobID: input.JobID,
		Text:  text,
	}).Get(ctx, &result); err != nil {
		return nil, failJob(ctx, input.JobID, "analysis", err)
	}

	report := ReportInput{
		JobID:          input.JobID,
		Filename:       input.Filename,
		FileType:       input.FileType,
		Text:           text,
		TextConfidence: confidence,
		PageCount:      pageCount,
		ProcessingTime: workflow.Now(ctx).Sub(started).Seconds(),
		Analysis:       result,
	}

	var final *document.AnalysisResult
	if err := workflow.ExecuteActivity(ctx, BuildReportActivityName, report).Get(ctx, &final); err != nil {
		return nil, failJob(ctx, input.JobID, "report", err)
	}

	logger.Info("Document processing completed", "jobID", input.JobID, "textLength", len(text))
	return final, nil
}

// recognizePDFPages rasterizes the PDF and runs OCR page by page.
// Rasterization failures degrade to native-only extraction.
func recognizePDFPages(ctx workflow.Context, input ProcessingInput, logger log.Logger) (string, float64, int) {
	var raster RasterizeResult
	if err := workflow.ExecuteActivity(ctx, RasterizeActivityName, input).Get(ctx, &raster); err != nil {
		logger.Warn("Rasterization unavailable, using native text only", "jobID", input.JobID, "error", err)
		return "", 0, 0
	}
	if len(raster.Pages) == 0 {
		return "", 0, 0
	}

	var builder []byte
	var confidenceSum float64
	recognized := 0

	for _, page := range raster.Pages {
		var result OCRPageResult
		err := workflow.ExecuteActivity(ctx, OCRPageActivityName, OCRPageInput{
			JobID:      input.JobID,
			Page:       page,
			TotalPages: len(raster.Pages),
		}).Get(ctx, &result)
		if err != nil {
			logger.Warn("Page recognition failed", "jobID", input.JobID, "page", page.Number, "error", err)
			continue
		}
		if result.Text == "" {
			continue
		}
		builder = append(builder, []byte(extractor.PageMarker(page.Number, result.Method))...)
		builder = append(builder, []byte(result.Text)...)
		confidenceSum += result.Confidence
		recognized++
	}

	if recognized == 0 {
		return "", 0, len(raster.Pages)
	}
	return string(builder), confidenceSum / float64(recognized), len(raster.Pages)
}

// combinedConfidence weighs the final confidence by which source won.
// Native text is trusted fully; OCR text carries its own mean score.
func combinedConfidence(nativeText string, ocrConfidence float64) float64 {
	if len(nativeText) > 100 {
		return 1.0
	}
	if ocrConfidence > 0 {
		return ocrConfidence
	}
	return 1.0
}

func publishProgress(ctx workflow.Context, jobID, stage string, progress int) error {
	return workflow.ExecuteActivity(ctx, PublishProgressActivityName, ProgressInput{
		JobID:    jobID,
		Stage:    stage,
		Progress: progress,
	}).Get(ctx, nil)
}

// failJob records the failure on the job before surfacing the error
func failJob(ctx workflow.Context, jobID, stage string, cause error) error {
	dctx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()
	dctx = workflow.WithActivityOptions(dctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	_ = workflow.ExecuteActivity(dctx, MarkFailedActivityName, FailureInput{
		JobID: jobID,
		Stage: stage,
		Error: cause.Error(),
	}).Get(dctx, nil)
	return cause
}

func parseCount(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
