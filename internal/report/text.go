// Package report renders analysis results into downloadable documents:
// plain text, DOCX, and raw JSON.
package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

const (
	maxReportEntities      = 20
	maxValuesPerInfoType   = 10
	sectionRule            = "=================================================="
)

// Text renders the full processing report as plain text
func Text(result *document.AnalysisResult) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("=== DOCUMENT PROCESSING RESULTS ===")
	add("")
	add("PROCESSING SUMMARY:")
	add("Filename: %s", result.Filename)
	add("File Type: %s", result.FileType)
	add("Processing Date: %s", time.Now().Format("2006-01-02 15:04:05"))
	add("Processing Time: %.2f seconds", result.ProcessingTime)
	add("Text Confidence: %.1f%%", result.TextConfidence*100)
	if result.PageCount > 0 {
		add("Pages: %d", result.PageCount)
	}
	if result.Statistics != nil {
		add("Word Count: %d", result.Statistics.WordCount)
		add("Character Count: %d", result.Statistics.CharacterCount)
	}
	add("")
	add(sectionRule)
	add("")

	if result.Classification != nil {
		add("DOCUMENT CLASSIFICATION:")
		add("Type: %s", titleCase(result.Classification.Type))
		add("Confidence: %.1f%%", result.Classification.Confidence*100)
		add("")
	}

	if len(result.Entities) > 0 {
		add("EXTRACTED ENTITIES:")
		for _, e := range capEntities(result.Entities) {
			add("• %s (%s) [%.1f%%]", e.Text, orUnknown(e.Label), e.Confidence*100)
		}
		add("")
	}

	if result.Sentiment != nil {
		add("SENTIMENT ANALYSIS:")
		add("Overall Sentiment: %s", titleCase(result.Sentiment.Overall))
		add("Confidence: %.1f%%", result.Sentiment.Confidence*100)
		add("Polarity: %.2f", result.Sentiment.Polarity)
		add("Subjectivity: %.2f", result.Sentiment.Subjectivity)
		add("")
	}

	if len(result.KeyInformation) > 0 {
		add("KEY INFORMATION:")
		for _, infoType := range sortedKeys(result.KeyInformation) {
			values := result.KeyInformation[infoType]
			if len(values) == 0 {
				continue
			}
			add("%s:", titleCase(strings.ReplaceAll(infoType, "_", " ")))
			for _, v := range capValues(values) {
				add("  • %s", v)
			}
			add("")
		}
	}

	if result.Summary != "" {
		add("SUMMARY:")
		add("%s", result.Summary)
		add("")
	}

	if result.ExtractedText != "" {
		add(sectionRule)
		add("EXTRACTED TEXT:")
		add(sectionRule)
		add("")
		add("%s", FormatExtractedText(result.ExtractedText))
	}

	return strings.Join(lines, "\n")
}

// JSON renders the raw result, indented for download
func JSON(result *document.AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return data, nil
}

var (
	pageBreakMarker = regexp.MustCompile(`\s*--- Page \d+ ---\s*`)
	ocrMarker       = regexp.MustCompile(`\s*--- OCR[^-]*---\s*`)
	multiSpace      = regexp.MustCompile(` {2,}`)
	spacedPunct     = regexp.MustCompile(`\s+([,.;:!?])`)
	joinedSentence  = regexp.MustCompile(`([.!?])([A-Z])`)
	bracedContent   = regexp.MustCompile(`\{\s*([^}]*?)\s*\}`)
)

// FormatExtractedText cleans OCR artifacts out of the raw text for
// presentation: page markers become uniform break lines, braces left by
// layout detection are unwrapped, and spacing is normalized.
func FormatExtractedText(text string) string {
	if text == "" {
		return ""
	}

	text = pageBreakMarker.ReplaceAllString(text, "\n\n--- PAGE BREAK ---\n\n")
	text = ocrMarker.ReplaceAllString(text, "\n\n--- OCR SECTION ---\n\n")

	sections := strings.Split(text, "\n\n")
	var cleaned []string
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		section = multiSpace.ReplaceAllString(section, " ")
		section = spacedPunct.ReplaceAllString(section, "$1")
		section = joinedSentence.ReplaceAllString(section, "$1 $2")
		section = bracedContent.ReplaceAllString(section, "$1")
		cleaned = append(cleaned, section)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n\n"))
}

func capEntities(entities []document.Entity) []document.Entity {
	if len(entities) > maxReportEntities {
		return entities[:maxReportEntities]
	}
	return entities
}

func capValues(values []string) []string {
	if len(values) > maxValuesPerInfoType {
		return values[:maxValuesPerInfoType]
	}
	return values
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
