package activities

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/activity"

	"github.com/infinity-9427/IntelliDoc-AI/internal/analysis"
	"github.com/infinity-9427/IntelliDoc-AI/internal/extractor"
	"github.com/infinity-9427/IntelliDoc-AI/internal/ocr"
	"github.com/infinity-9427/IntelliDoc-AI/internal/pipeline"
	"github.com/infinity-9427/IntelliDoc-AI/internal/raster"
	"github.com/infinity-9427/IntelliDoc-AI/internal/temporal/workflows"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// Activities holds the processing dependencies shared by every activity
type Activities struct {
	engine     *extractor.Engine
	rasterizer *raster.Rasterizer
	ocr        *ocr.Service
	analyzer   *analysis.Analyzer
	bus        *pipeline.EventBus
	log        zerolog.Logger
}

// NewActivities wires the activity set
func NewActivities(
	engine *extractor.Engine,
	rasterizer *raster.Rasterizer,
	ocrService *ocr.Service,
	analyzer *analysis.Analyzer,
	bus *pipeline.EventBus,
) *Activities {
	return &Activities{
		engine:     engine,
		rasterizer: rasterizer,
		ocr:        ocrService,
		analyzer:   analyzer,
		bus:        bus,
		log:        logging.GetLogger("activities"),
	}
}

// progress publishes a milestone; delivery failures are logged, never fatal
func (a *Activities) progress(jobID, stage string, pct int) {
	if a.bus == nil {
		return
	}
	if err := a.bus.Publish(pipeline.ProgressEvent(jobID, stage, pct)); err != nil {
		a.log.Warn().Err(err).Str("job_id", jobID).Str("stage", stage).Msg("Progress event dropped")
	}
}

// ExtractNative runs format-native text extraction. For images this
// already includes the OCR pipeline via the image extractor.
func (a *Activities) ExtractNative(ctx context.Context, input workflows.ProcessingInput) (workflows.NativeExtractResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Extracting text", "jobID", input.JobID, "type", input.FileType, "contentSize", len(input.Content))

	text, metadata, err := a.engine.Extract(ctx, input.Content, input.FileType)
	if err != nil {
		return workflows.NativeExtractResult{}, fmt.Errorf("failed to extract text: %w", err)
	}

	a.progress(input.JobID, "text_extraction", 20)
	logger.Info("Text extracted", "jobID", input.JobID, "textLength", len(text))
	return workflows.NativeExtractResult{Text: text, Metadata: metadata}, nil
}

// Rasterize renders PDF pages to PNG images for OCR
func (a *Activities) Rasterize(ctx context.Context, input workflows.ProcessingInput) (workflows.RasterizeResult, error) {
	logger := activity.GetLogger(ctx)

	images, err := a.rasterizer.Pages(ctx, input.Content)
	if err != nil {
		return workflows.RasterizeResult{}, fmt.Errorf("failed to rasterize: %w", err)
	}

	result := workflows.RasterizeResult{Pages: make([]workflows.PageImage, 0, len(images))}
	for i, img := range images {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return workflows.RasterizeResult{}, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		result.Pages = append(result.Pages, workflows.PageImage{Number: i + 1, PNG: buf.Bytes()})
	}

	a.progress(input.JobID, "rasterization", 40)
	logger.Info("PDF rasterized", "jobID", input.JobID, "pages", len(result.Pages))
	return result, nil
}

// OCRPage recognizes one rasterized page. Progress interpolates from 40
// to 70 across the page range.
func (a *Activities) OCRPage(ctx context.Context, input workflows.OCRPageInput) (workflows.OCRPageResult, error) {
	logger := activity.GetLogger(ctx)

	img, err := imaging.Decode(bytes.NewReader(input.Page.PNG))
	if err != nil {
		return workflows.OCRPageResult{}, fmt.Errorf("failed to decode page %d: %w", input.Page.Number, err)
	}

	page := a.ocr.RecognizePage(ctx, img)

	if input.TotalPages > 0 {
		pct := 40 + (30*input.Page.Number)/input.TotalPages
		a.progress(input.JobID, "ocr", pct)
	}

	logger.Info("Page recognized",
		"jobID", input.JobID,
		"page", input.Page.Number,
		"method", page.Method,
		"confidence", page.Confidence)
	return workflows.OCRPageResult{
		Text:       page.FinalText,
		Method:     page.Method,
		Confidence: page.Confidence,
	}, nil
}

// Analyze runs the AI analysis pipeline over the extracted text
func (a *Activities) Analyze(ctx context.Context, input workflows.AnalyzeInput) (*analysis.Analysis, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Analyzing text", "jobID", input.JobID, "textLength", len(input.Text))

	result := a.analyzer.Analyze(ctx, input.Text)
	a.progress(input.JobID, "analysis", 90)
	return result, nil
}

// BuildReport assembles the final result and publishes job completion
func (a *Activities) BuildReport(ctx context.Context, input workflows.ReportInput) (*document.AnalysisResult, error) {
	logger := activity.GetLogger(ctx)

	result := &document.AnalysisResult{
		JobID:          input.JobID,
		Filename:       input.Filename,
		FileType:       input.FileType,
		ProcessingTime: input.ProcessingTime,
		ExtractedText:  input.Text,
		TextConfidence: input.TextConfidence,
		PageCount:      input.PageCount,
	}
	if input.Analysis != nil {
		result.Classification = input.Analysis.Classification
		result.Entities = input.Analysis.Entities
		result.Sentiment = input.Analysis.Sentiment
		result.Summary = input.Analysis.Summary
		result.KeyInformation = input.Analysis.KeyInformation
		result.Statistics = input.Analysis.Statistics
	}

	a.progress(input.JobID, "report", 95)
	if a.bus != nil {
		if err := a.bus.Publish(pipeline.CompletedEvent(input.JobID, result)); err != nil {
			a.log.Warn().Err(err).Str("job_id", input.JobID).Msg("Completion event dropped")
		}
	}

	logger.Info("Result assembled", "jobID", input.JobID, "pages", input.PageCount)
	return result, nil
}

// PublishProgress lets workflow code report milestones between activities
func (a *Activities) PublishProgress(ctx context.Context, input workflows.ProgressInput) error {
	a.progress(input.JobID, input.Stage, input.Progress)
	return nil
}

// MarkFailed publishes the failure event for a job
func (a *Activities) MarkFailed(ctx context.Context, input workflows.FailureInput) error {
	if a.bus == nil {
		return nil
	}
	return a.bus.Publish(pipeline.FailedEvent(input.JobID, input.Stage, input.Error))
}
