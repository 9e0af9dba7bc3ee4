package document

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a processing job
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Type identifies the kind of document being processed
type Type string

const (
	TypePDF     Type = "pdf"
	TypeImage   Type = "image"
	TypeDOCX    Type = "docx"
	TypeHTML    Type = "html"
	TypeText    Type = "text"
	TypeUnknown Type = "unknown"
)

// TypeFromFilename maps a filename extension to a document type
func TypeFromFilename(name string) Type {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return TypePDF
	case strings.HasSuffix(name, ".png"), strings.HasSuffix(name, ".jpg"),
		strings.HasSuffix(name, ".jpeg"), strings.HasSuffix(name, ".tiff"),
		strings.HasSuffix(name, ".bmp"):
		return TypeImage
	case strings.HasSuffix(name, ".docx"), strings.HasSuffix(name, ".doc"):
		return TypeDOCX
	case strings.HasSuffix(name, ".html"), strings.HasSuffix(name, ".htm"):
		return TypeHTML
	case strings.HasSuffix(name, ".txt"):
		return TypeText
	default:
		return TypeUnknown
	}
}

// Classification is the document-type verdict from the analysis oracle
type Classification struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Entity is a named entity extracted from document text
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	StartPos   int     `json:"start_pos,omitempty"`
	EndPos     int     `json:"end_pos,omitempty"`
}

// Sentiment holds the sentiment verdict for the document
type Sentiment struct {
	Overall      string  `json:"overall_sentiment"`
	Confidence   float64 `json:"confidence"`
	Polarity     float64 `json:"polarity,omitempty"`
	Subjectivity float64 `json:"subjectivity,omitempty"`
}

// TextStatistics holds locally computed statistics about extracted text
type TextStatistics struct {
	CharacterCount           int     `json:"character_count"`
	WordCount                int     `json:"word_count"`
	SentenceCount            int     `json:"sentence_count"`
	AverageWordsPerSentence  float64 `json:"average_words_per_sentence"`
	AverageCharactersPerWord float64 `json:"average_characters_per_word"`
}

// AnalysisResult is the complete output of processing one document
type AnalysisResult struct {
	JobID          string  `json:"job_id"`
	Filename       string  `json:"filename"`
	FileType       Type    `json:"file_type"`
	ProcessingTime float64 `json:"processing_time"` // seconds

	ExtractedText  string  `json:"extracted_text"`
	TextConfidence float64 `json:"text_confidence"`

	Classification *Classification     `json:"document_classification,omitempty"`
	Entities       []Entity            `json:"entities,omitempty"`
	Sentiment      *Sentiment          `json:"sentiment_analysis,omitempty"`
	KeyInformation map[string][]string `json:"key_information,omitempty"`
	Summary        string              `json:"summary,omitempty"`
	Statistics     *TextStatistics     `json:"text_statistics,omitempty"`

	PageCount int               `json:"page_count,omitempty"`
	FileSize  int64             `json:"file_size"`
	Metadata  map[string]string `json:"processing_metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that a result carries the fields every consumer relies on
func (r *AnalysisResult) Validate() error {
	if r.JobID == "" {
		return fmt.Errorf("result job ID cannot be empty")
	}
	if r.Filename == "" {
		return fmt.Errorf("result filename cannot be empty")
	}
	if r.TextConfidence < 0 || r.TextConfidence > 1 {
		return fmt.Errorf("text confidence %f outside [0,1]", r.TextConfidence)
	}
	return nil
}

// ComputeStatistics derives text statistics the same way regardless of
// whether the analysis oracle was reachable.
func ComputeStatistics(text string) *TextStatistics {
	stats := &TextStatistics{CharacterCount: len(text)}
	words := strings.Fields(text)
	stats.WordCount = len(words)
	for _, s := range strings.Split(text, ".") {
		if strings.TrimSpace(s) != "" {
			stats.SentenceCount++
		}
	}
	if stats.SentenceCount > 0 {
		stats.AverageWordsPerSentence = float64(stats.WordCount) / float64(stats.SentenceCount)
	}
	if stats.WordCount > 0 {
		stats.AverageCharactersPerWord = float64(stats.CharacterCount) / float64(stats.WordCount)
	}
	return stats
}
