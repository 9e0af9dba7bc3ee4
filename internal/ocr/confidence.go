package ocr

// MeanTokenConfidence computes a scalar confidence for one recognition
// attempt: the average of all token confidences strictly greater than
// zero. An attempt with no valid tokens scores exactly 0.
//
// Token confidences are expected on the engine's native scale; callers
// that receive percentages (Tesseract) must normalize tokens to [0,1]
// before scoring.
func MeanTokenConfidence(tokens []Token) float64 {
	var sum float64
	var n int
	for _, tok := range tokens {
		if tok.Confidence > 0 {
			sum += tok.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	if mean > 1 {
		mean = 1
	}
	return mean
}
