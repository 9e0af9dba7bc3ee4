package ocr

import (
	"context"
	"image"

	"github.com/rs/zerolog"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// TextProcessor cleans recognized text after selection. It operates on
// the final text only; confidence and provenance are preserved.
type TextProcessor interface {
	Process(text string) string
}

// Service runs the full per-page pipeline: enhancement, every ready
// engine, confidence scoring, consensus selection, post-processing.
type Service struct {
	registry  *Registry
	enhancer  *Enhancer
	processor TextProcessor
	log       zerolog.Logger
}

// NewService wires the pipeline. The registry is held by reference and
// never mutated; processor may be nil to skip post-processing.
func NewService(registry *Registry, processor TextProcessor) *Service {
	return &Service{
		registry:  registry,
		enhancer:  NewEnhancer(),
		processor: processor,
		log:       logging.GetLogger("ocr"),
	}
}

// Registry exposes engine availability for the ops endpoint
func (s *Service) Registry() *Registry { return s.registry }

// RecognizePage runs every available engine against the page image and
// returns the selected result. All failures inside the pipeline degrade
// to low-confidence or empty text; RecognizePage never returns an error.
//
// The primary engine receives the aggressively enhanced image; the
// alternates receive a mild enhancement, matching their own internal
// preprocessing expectations.
func (s *Service) RecognizePage(ctx context.Context, img image.Image) PageResult {
	engines := s.registry.Ready()
	if len(engines) == 0 {
		s.log.Warn().Msg("No OCR engines available")
		return PageResult{Method: "none"}
	}

	aggressive := s.enhancer.Enhance(img, true)
	mild := s.enhancer.Enhance(img, false)

	results := make([]Result, 0, len(engines))
	for _, engine := range engines {
		input := mild
		if engine.ID() == "tesseract" {
			input = aggressive
		}
		r := engine.Recognize(ctx, input)
		if r.Err != "" {
			s.log.Warn().Str("engine", engine.ID()).Str("error", r.Err).Msg("Engine recognition failed")
		}
		s.log.Debug().
			Str("engine", engine.ID()).
			Float64("confidence", r.MeanConfidence).
			Int("text_length", len(r.RawText)).
			Str("config", r.ConfigUsed).
			Msg("Engine result")
		results = append(results, r)
	}

	selected := Select(results)
	if selected.FinalText != "" && s.processor != nil {
		selected.FinalText = s.processor.Process(selected.FinalText)
	}

	s.log.Info().
		Str("method", selected.Method).
		Float64("confidence", selected.Confidence).
		Int("text_length", len(selected.FinalText)).
		Msg("Page recognized")
	return selected
}
