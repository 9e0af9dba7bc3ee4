package processing

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule is a single ordered text-correction pass
type Rule interface {
	Name() string
	Apply(text string) (string, error)
}

// HyphenationRule rejoins hyphenated words that OCR split with spaces:
// "fast -paced" becomes "fast-paced".
type HyphenationRule struct{}

var hyphenSpacing = regexp.MustCompile(`(\w+)\s+-\s*(\w+)`)

func (r *HyphenationRule) Name() string { return "hyphenation" }

func (r *HyphenationRule) Apply(text string) (string, error) {
	return hyphenSpacing.ReplaceAllString(text, "$1-$2"), nil
}

// WhitespaceRule collapses runs of whitespace to a single space
type WhitespaceRule struct{}

var whitespaceRuns = regexp.MustCompile(`\s+`)

func (r *WhitespaceRule) Name() string { return "whitespace" }

func (r *WhitespaceRule) Apply(text string) (string, error) {
	return whitespaceRuns.ReplaceAllString(text, " "), nil
}

// DisambiguationRule resolves ambiguous glyphs, then normalizes any
// remaining 'O' to '0' inside digit-bearing words.
type DisambiguationRule struct {
	disambiguator *Disambiguator
}

func NewDisambiguationRule() *DisambiguationRule {
	return &DisambiguationRule{disambiguator: NewDisambiguator()}
}

func (r *DisambiguationRule) Name() string { return "disambiguation" }

func (r *DisambiguationRule) Apply(text string) (string, error) {
	text = r.disambiguator.Disambiguate(text)

	words := strings.Fields(text)
	for i, word := range words {
		if strings.Contains(word, "O") && containsDigit(word) {
			words[i] = strings.ReplaceAll(word, "O", "0")
		}
	}
	return strings.Join(words, " "), nil
}

// KnownWordRule replaces commonly misrecognized words, whole-word and
// case-insensitive.
type KnownWordRule struct {
	replacements []knownWord
}

type knownWord struct {
	pattern     *regexp.Regexp
	replacement string
}

var knownWordTable = map[string]string{
	"environrnent":  "environment",
	"developrnent":  "development",
	"managernent":   "management",
	"requirernents": "requirements",
	"experiénce":    "experience",
	"cornpany":      "company",
	"rnust":         "must",
	"worI<":         "work",
	"worlç":         "work",
	"skílls":        "skills",
	"leam":          "team",
	"proíect":       "project",
	"proiect":       "project",
}

func NewKnownWordRule() *KnownWordRule {
	rule := &KnownWordRule{}
	for wrong, correct := range knownWordTable {
		// \b is ASCII-only in RE2; entries ending in a non-ASCII letter
		// need an explicit trailing boundary.
		tail, repl := `\b`, correct
		if last, _ := utf8.DecodeLastRuneInString(wrong); last >= utf8.RuneSelf {
			tail = `([^\p{L}\p{N}_]|$)`
			repl = correct + "${1}"
		}
		rule.replacements = append(rule.replacements, knownWord{
			pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(wrong) + tail),
			replacement: repl,
		})
	}
	return rule
}

func (r *KnownWordRule) Name() string { return "known_words" }

func (r *KnownWordRule) Apply(text string) (string, error) {
	for _, kw := range r.replacements {
		text = kw.pattern.ReplaceAllString(text, kw.replacement)
	}
	return text, nil
}

// PunctuationRule normalizes punctuation spacing: no space before
// terminators, a space between a sentence end and a following capital,
// and trimmed whitespace inside straight-quoted spans.
type PunctuationRule struct{}

var (
	spaceBeforePunct = regexp.MustCompile(`\s+([,.;:!?])`)
	missingSpace     = regexp.MustCompile(`([.!?])([A-Z])`)
	quotedSpan       = regexp.MustCompile(`"\s*([^"]*?)\s*"`)
)

func (r *PunctuationRule) Name() string { return "punctuation" }

func (r *PunctuationRule) Apply(text string) (string, error) {
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = missingSpace.ReplaceAllString(text, "$1 $2")
	text = quotedSpan.ReplaceAllString(text, `"$1"`)
	return text, nil
}
