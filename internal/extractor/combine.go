package extractor

import (
	"fmt"
	"strings"
)

// noExtractableText is returned when neither text source produced
// anything usable.
const noExtractableText = "No text could be extracted from the document."

// CombineTextSources merges the native PDF text layer with OCR output.
// Substantial native text (>100 chars) wins, with OCR appended as a
// supplement when it carries real content (>50 chars); otherwise the
// OCR text stands alone.
func CombineTextSources(nativeText, ocrText string) string {
	native := strings.TrimSpace(nativeText)
	recognized := strings.TrimSpace(ocrText)

	if native != "" && len(native) > 100 {
		if recognized != "" && len(recognized) > 50 {
			return fmt.Sprintf("%s\n\n--- OCR Supplementary ---\n%s", nativeText, ocrText)
		}
		return nativeText
	}

	if recognized == "" {
		return noExtractableText
	}
	return ocrText
}

// PageMarker formats the per-page heading used when concatenating OCR
// page texts, mirroring the native-extraction page markers.
func PageMarker(pageNumber int, method string) string {
	return fmt.Sprintf("\n--- OCR Page %d (Method: %s) ---\n", pageNumber, method)
}
