// Package analysis derives document understanding from extracted text:
// classification, entities, sentiment, key information, and a summary.
// A local Ollama model is the oracle; every operation has a heuristic
// fallback so analysis degrades instead of failing when the model
// server is down.
package analysis

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

const maxEntities = 20

// Analyzer runs the full analysis suite over one document's text
type Analyzer struct {
	client *Client
	log    zerolog.Logger
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client, log: logging.GetLogger("analysis")}
}

// Analysis is the combined outcome of every analysis operation
type Analysis struct {
	Classification *document.Classification
	Entities       []document.Entity
	Sentiment      *document.Sentiment
	Summary        string
	KeyInformation map[string][]string
	Statistics     *document.TextStatistics
}

// Analyze never fails: each operation falls back to its heuristic when
// the model is unreachable or answers with something unparseable.
func (a *Analyzer) Analyze(ctx context.Context, text string) *Analysis {
	cleaned := cleanText(text)
	if cleaned == "" {
		return &Analysis{
			Classification: &document.Classification{Type: "unknown", Confidence: 0},
			Sentiment:      &document.Sentiment{Overall: "neutral", Confidence: 0.5},
			Summary:        "No analysis available",
			KeyInformation: map[string][]string{},
			Statistics:     document.ComputeStatistics(""),
		}
	}

	return &Analysis{
		Classification: a.classify(ctx, cleaned),
		Entities:       a.extractEntities(ctx, cleaned),
		Sentiment:      a.analyzeSentiment(ctx, cleaned),
		Summary:        a.summarize(ctx, cleaned),
		KeyInformation: ExtractKeyInformation(cleaned),
		Statistics:     document.ComputeStatistics(cleaned),
	}
}

var (
	typeField = regexp.MustCompile(`"type":\s*"([^"]+)"`)
	confField = regexp.MustCompile(`"confidence":\s*([0-9.]+)`)
)

func (a *Analyzer) classify(ctx context.Context, text string) *document.Classification {
	response, err := a.client.Generate(ctx, TaskClassification, text)
	if err != nil || response == "" {
		if err != nil {
			a.log.Debug().Err(err).Msg("Model classification failed, using keyword fallback")
		}
		return ruleClassify(text)
	}

	var parsed struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err == nil && parsed.Type != "" {
		return &document.Classification{Type: parsed.Type, Confidence: clamp01(parsed.Confidence)}
	}

	// Model answered but not with clean JSON; salvage the fields.
	c := &document.Classification{Type: "unknown", Confidence: 0.5}
	if m := typeField.FindStringSubmatch(response); m != nil {
		c.Type = m[1]
	}
	if m := confField.FindStringSubmatch(response); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			c.Confidence = clamp01(v)
		}
	}
	if c.Type == "unknown" {
		return ruleClassify(text)
	}
	return c
}

var entityFields = regexp.MustCompile(`"text":\s*"([^"]+)"[^}]*"label":\s*"([^"]+)"`)

func (a *Analyzer) extractEntities(ctx context.Context, text string) []document.Entity {
	response, err := a.client.Generate(ctx, TaskEntities, text)
	if err != nil || response == "" {
		return nil
	}

	var entities []document.Entity
	if err := json.Unmarshal([]byte(response), &entities); err == nil {
		if len(entities) > maxEntities {
			entities = entities[:maxEntities]
		}
		return entities
	}

	matches := entityFields.FindAllStringSubmatch(response, maxEntities)
	for _, m := range matches {
		entities = append(entities, document.Entity{Text: m[1], Label: m[2], Confidence: 0.8})
	}
	return entities
}

func (a *Analyzer) analyzeSentiment(ctx context.Context, text string) *document.Sentiment {
	response, err := a.client.Generate(ctx, TaskSentiment, text)
	if err != nil || response == "" {
		return lexiconSentiment(text)
	}

	var parsed struct {
		Sentiment    string  `json:"sentiment"`
		Confidence   float64 `json:"confidence"`
		Subjectivity float64 `json:"subjectivity"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err == nil && parsed.Sentiment != "" {
		return &document.Sentiment{
			Overall:      parsed.Sentiment,
			Confidence:   clamp01(parsed.Confidence),
			Polarity:     polarityOf(parsed.Sentiment),
			Subjectivity: clamp01(parsed.Subjectivity),
		}
	}

	// Free-text answer: look for the verdict word.
	verdict := "neutral"
	lower := strings.ToLower(response)
	switch {
	case strings.Contains(lower, "positive"):
		verdict = "positive"
	case strings.Contains(lower, "negative"):
		verdict = "negative"
	}
	return &document.Sentiment{
		Overall:      verdict,
		Confidence:   0.7,
		Polarity:     polarityOf(verdict),
		Subjectivity: 0.7,
	}
}

var jsonArtifacts = regexp.MustCompile(`^[{}\[\]"]+|[{}\[\]"]+$`)

func (a *Analyzer) summarize(ctx context.Context, text string) string {
	// Very short texts are their own summary.
	if len(text) < 200 {
		if len(text) > 150 {
			return text[:150] + "..."
		}
		return text
	}

	response, err := a.client.Generate(ctx, TaskSummary, text)
	if err != nil || len(strings.TrimSpace(response)) <= 10 {
		return extractiveSummary(text)
	}

	summary := jsonArtifacts.ReplaceAllString(strings.TrimSpace(response), "")
	summary = strings.TrimSpace(summary)
	if len(summary) > 500 {
		return summary[:500] + "..."
	}
	return summary
}

// ruleClassify scores keyword families per document category. A best
// score at or below 0.1 means no category stood out.
func ruleClassify(text string) *document.Classification {
	categories := map[string][]string{
		"invoice":   {"invoice", "bill", "payment", "amount", "total", "due"},
		"contract":  {"agreement", "contract", "terms", "conditions", "party"},
		"report":    {"report", "analysis", "conclusion", "findings", "summary"},
		"letter":    {"dear", "sincerely", "regards", "letter"},
		"resume":    {"experience", "education", "skills", "work", "cv"},
		"legal":     {"law", "legal", "court", "jurisdiction", "whereas"},
		"academic":  {"abstract", "introduction", "methodology", "references"},
		"technical": {"technical", "specification", "implementation", "system"},
	}

	lower := strings.ToLower(text)
	bestType, bestScore := "unknown", 0.0
	// Deterministic iteration keeps ties stable.
	for _, docType := range []string{"invoice", "contract", "report", "letter", "resume", "legal", "academic", "technical"} {
		keywords := categories[docType]
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if score := float64(hits) / float64(len(keywords)); score > bestScore {
			bestType, bestScore = docType, score
		}
	}

	if bestScore <= 0.1 {
		return &document.Classification{Type: "unknown", Confidence: clamp01(bestScore)}
	}
	return &document.Classification{Type: bestType, Confidence: clamp01(bestScore)}
}

var (
	positiveWords = []string{
		"excellent", "good", "great", "success", "successful", "growth",
		"improved", "improvement", "profit", "achieved", "pleased",
		"strong", "positive", "opportunity", "benefit", "gain",
	}
	negativeWords = []string{
		"bad", "poor", "failure", "failed", "loss", "decline", "problem",
		"issue", "risk", "concern", "negative", "deficit", "complaint",
		"dispute", "breach", "penalty",
	}
)

// lexiconSentiment is the local fallback: polarity from the balance of
// positive and negative vocabulary in the first thousand characters.
func lexiconSentiment(text string) *document.Sentiment {
	sample := strings.ToLower(text)
	if len(sample) > 1000 {
		sample = sample[:1000]
	}

	var pos, neg int
	for _, w := range positiveWords {
		pos += strings.Count(sample, w)
	}
	for _, w := range negativeWords {
		neg += strings.Count(sample, w)
	}

	total := pos + neg
	var polarity float64
	if total > 0 {
		polarity = float64(pos-neg) / float64(total)
	}

	verdict := "neutral"
	if polarity > 0.1 {
		verdict = "positive"
	} else if polarity < -0.1 {
		verdict = "negative"
	}

	magnitude := polarity
	if magnitude < 0 {
		magnitude = -magnitude
	}
	confidence := 0.5
	if magnitude > 0.1 {
		confidence = clamp01(magnitude)
	}

	return &document.Sentiment{
		Overall:      verdict,
		Confidence:   confidence,
		Polarity:     polarity,
		Subjectivity: 0.5,
	}
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// extractiveSummary takes the first sentence, the middle one, and the
// last when it reads like a conclusion.
func extractiveSummary(text string) string {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) > 20 {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return "Unable to generate summary."
	}
	if len(sentences) <= 3 {
		return strings.Join(sentences, " ")
	}

	picked := []string{sentences[0], sentences[len(sentences)/2]}
	last := sentences[len(sentences)-1]
	lower := strings.ToLower(last)
	for _, marker := range []string{"conclusion", "summary", "total", "result"} {
		if strings.Contains(lower, marker) {
			picked = append(picked, last)
			break
		}
	}

	summary := strings.Join(picked, " ")
	if len(summary) > 500 {
		return summary[:500] + "..."
	}
	return summary
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	controlChars  = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
)

// cleanText collapses whitespace and strips control characters
func cleanText(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = controlChars.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func polarityOf(sentiment string) float64 {
	switch sentiment {
	case "positive":
		return 0.5
	case "negative":
		return -0.5
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
