package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/infinity-9427/IntelliDoc-AI/internal/ocr"
)

// ImageExtractor runs the multi-engine OCR pipeline over a single image
type ImageExtractor struct {
	service *ocr.Service
}

func NewImageExtractor(service *ocr.Service) *ImageExtractor {
	return &ImageExtractor{service: service}
}

func (o *ImageExtractor) Extract(ctx context.Context, content []byte) (string, map[string]string, error) {
	metadata := map[string]string{
		"type": "ocr",
		"size": fmt.Sprintf("%d", len(content)),
	}
	if len(content) == 0 {
		return "", metadata, &ProcessingError{
			Message: "no image content provided for OCR",
		}
	}

	img, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("failed to decode image: %v", err),
		}
	}
	metadata["width"] = fmt.Sprintf("%d", img.Bounds().Dx())
	metadata["height"] = fmt.Sprintf("%d", img.Bounds().Dy())

	page := o.service.RecognizePage(ctx, img)
	text := strings.TrimSpace(page.FinalText)

	metadata["method"] = page.Method
	metadata["confidence"] = fmt.Sprintf("%.2f", page.Confidence)
	metadata["text_length"] = fmt.Sprintf("%d", len(text))
	metadata["word_count"] = fmt.Sprintf("%d", len(strings.Fields(text)))

	if text == "" {
		return "", metadata, &ProcessingError{
			Message: "OCR could not extract any text from the image",
		}
	}
	metadata["status"] = "success"
	return text, metadata, nil
}
