package ocr

// PageResult is the final output for one page: the selected (or
// synthesized) text, its confidence, which method produced it, and the
// per-engine results that contributed.
type PageResult struct {
	FinalText    string   `json:"final_text"`
	Confidence   float64  `json:"confidence"`
	Method       string   `json:"method"`
	Contributing []Result `json:"contributing_results,omitempty"`
}

// consensusThreshold is the confidence below which a multi-engine
// consensus is attempted instead of trusting the single best engine.
const consensusThreshold = 0.8

// Select picks the best single-engine result, or synthesizes a consensus
// when every engine scored low. With no results at all it returns an
// empty PageResult with method "none"; callers must check for emptiness.
func Select(results []Result) PageResult {
	if len(results) == 0 {
		return PageResult{Method: "none"}
	}

	// Highest confidence wins. Ties keep the first-seen result: the
	// tie-break is iteration order over the input slice, which follows
	// engine registration order. This is a stability guarantee, not an
	// algorithmic preference.
	best := results[0]
	for _, r := range results[1:] {
		if r.MeanConfidence > best.MeanConfidence {
			best = r
		}
	}

	selected := PageResult{
		FinalText:    best.RawText,
		Confidence:   best.MeanConfidence,
		Method:       best.EngineID,
		Contributing: results,
	}

	if best.MeanConfidence < consensusThreshold && len(results) > 1 {
		if text := consensusText(results); text != "" {
			selected.FinalText = text
			selected.Method = "consensus"
		}
	}
	return selected
}

// consensusText scores every candidate as confidence x (length / 1000)
// and returns the highest-scoring text. The length factor favors results
// that are both confident and substantial, avoiding spuriously short
// high-confidence fragments. Ties keep the first-seen candidate.
func consensusText(results []Result) string {
	var bestText string
	var bestScore float64
	for _, r := range results {
		if r.RawText == "" {
			continue
		}
		if bestText == "" {
			bestText = r.RawText
		}
		score := r.MeanConfidence * (float64(len(r.RawText)) / 1000)
		if score > bestScore {
			bestScore = score
			bestText = r.RawText
		}
	}
	return bestText
}
