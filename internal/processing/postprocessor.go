// Package processing cleans recognized text: punctuation and spacing
// normalization, known-word correction, and character disambiguation.
package processing

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// PostProcessor applies the ordered correction passes to OCR output.
// Processing is idempotent on already-clean text, and any single pass
// failing degrades to passing its input through unmodified.
type PostProcessor struct {
	rules []Rule
	log   zerolog.Logger
}

// NewPostProcessor builds the default pass pipeline. Order matters:
// spacing is normalized before disambiguation so the disambiguator sees
// stable word boundaries, and punctuation cleanup runs last.
func NewPostProcessor() *PostProcessor {
	return &PostProcessor{
		rules: []Rule{
			&HyphenationRule{},
			&WhitespaceRule{},
			NewDisambiguationRule(),
			NewKnownWordRule(),
			&PunctuationRule{},
		},
		log: logging.GetLogger("processing"),
	}
}

// Process runs every pass in order and returns the corrected text
func (p *PostProcessor) Process(text string) string {
	if text == "" {
		return text
	}
	for _, rule := range p.rules {
		after, err := rule.Apply(text)
		if err != nil {
			p.log.Warn().Err(err).Str("rule", rule.Name()).Msg("Correction pass failed, keeping previous text")
			continue
		}
		text = after
	}
	return strings.TrimSpace(text)
}
