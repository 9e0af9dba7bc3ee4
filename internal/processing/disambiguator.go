package processing

import (
	"strings"
	"unicode"
)

// Disambiguator resolves visually confusable glyphs (l/1/I/O/0) using
// positional, lexical, and contextual signals. It is a pure function
// over (word, word context, position): no state persists across words
// or calls.
type Disambiguator struct{}

// NewDisambiguator returns a character disambiguator
func NewDisambiguator() *Disambiguator {
	return &Disambiguator{}
}

// multiCharTable maps whole-word glyph pairs to their numeric reading.
// Every substitution is length-preserving.
var multiCharTable = map[string]string{
	"Il": "11",
	"ll": "11",
	"Ol": "01",
	"lO": "10",
}

// commonSurnames guards against converting a person's short first name
// or initial into a digit when it is followed by a capitalized surname.
var commonSurnames = map[string]bool{
	"smith": true, "johnson": true, "williams": true, "brown": true, "jones": true,
	"garcia": true, "miller": true, "davis": true, "rodriguez": true, "martinez": true,
	"hernandez": true, "lopez": true, "gonzalez": true, "wilson": true, "anderson": true,
	"thomas": true, "taylor": true, "moore": true, "jackson": true, "martin": true,
	"lee": true, "perez": true, "thompson": true, "white": true, "harris": true,
	"sanchez": true, "clark": true, "ramirez": true, "lewis": true, "robinson": true,
	"walker": true, "young": true, "allen": true, "king": true, "wright": true,
	"scott": true, "torres": true, "nguyen": true, "hill": true, "flores": true,
	"green": true, "adams": true, "nelson": true, "baker": true, "hall": true,
	"rivera": true, "campbell": true, "mitchell": true, "carter": true, "roberts": true,
	"gomez": true, "phillips": true, "evans": true, "turner": true, "diaz": true,
	"parker": true, "cruz": true, "edwards": true, "collins": true, "reyes": true,
	"stewart": true, "morris": true, "morales": true, "murphy": true, "cook": true,
	"rogers": true, "gutierrez": true, "ortiz": true, "morgan": true, "cooper": true,
	"peterson": true, "bailey": true, "reed": true, "kelly": true, "howard": true,
	"ramos": true, "kim": true, "cox": true, "ward": true, "richardson": true,
	"watson": true, "brooks": true, "chavez": true, "wood": true, "james": true,
	"bennett": true, "gray": true, "mendoza": true, "ruiz": true, "hughes": true,
	"price": true, "alvarez": true, "castillo": true, "sanders": true, "patel": true,
	"myers": true, "long": true, "ross": true, "foster": true, "jimenez": true,
	"gore": true,
}

var sentenceStarters = map[string]bool{
	"all": true, "also": true, "although": true, "always": true,
	"already": true, "almost": true, "alone": true,
}

// businessVerbs indicate an entity subject preceding them
var businessVerbs = []string{
	"provides", "offers", "delivers", "focuses", "emphasizes",
	"cultivates", "seeks", "values", "maintains", "ensures",
	"specializes", "operates", "manages", "develops", "creates",
}

var entityPrepositions = map[string]bool{
	"at": true, "with": true, "for": true, "by": true, "from": true, "through": true,
}

var businessNouns = map[string]bool{
	"company": true, "corporation": true, "provides": true, "offers": true,
	"delivers": true, "focuses": true, "cultivates": true,
}

var modelIndicators = []string{"model", "version", "code", "product", "system", "type"}

var techContextWords = []string{
	"system", "model", "version", "code", "product", "solution",
	"platform", "service", "technology", "software", "hardware",
}

var numericIndicators = []string{"number", "code", "id", "phone", "fax", "suite", "street", "#"}

var pronounVerbs = map[string]bool{
	"am": true, "was": true, "will": true, "have": true, "had": true,
	"can": true, "should": true, "would": true, "could": true,
}

// commonWhitelist holds words never rewritten by the word-formation pass
var commonWhitelist = map[string]bool{
	"welcome": true, "come": true, "some": true, "home": true, "time": true,
	"make": true, "take": true, "place": true, "people": true, "like": true,
	"life": true, "world": true, "great": true, "little": true, "old": true,
	"small": true, "large": true, "good": true, "new": true, "first": true,
	"last": true, "long": true, "right": true, "left": true, "high": true,
	"low": true, "big": true, "early": true, "late": true, "all": true,
	"also": true, "already": true, "almost": true, "alone": true,
	"although": true, "always": true,
}

var morphemePatterns = []string{"ing", "tion", "ed", "er", "ly", "al", "ic", "able", "ful"}

var glyphRuns = []string{"1l", "l1", "I1", "1I", "ll1", "1ll"}

// Disambiguate resolves ambiguous glyphs across the whole text. Word
// order and word count are preserved; punctuation around each token is
// stripped before analysis and reattached unchanged.
func (d *Disambiguator) Disambiguate(text string) string {
	if text == "" {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	corrected := make([]string, len(words))
	for i, word := range words {
		prefix, core, suffix := splitPunctuation(word)
		if core == "" {
			corrected[i] = word
			continue
		}
		corrected[i] = prefix + d.disambiguateWord(core, words, i) + suffix
	}
	return strings.Join(corrected, " ")
}

// disambiguateWord applies the rule cascade in fixed priority order. A
// failure in any single rule leaves the word unmodified without
// aborting the remaining words.
func (d *Disambiguator) disambiguateWord(word string, context []string, index int) (out string) {
	out = word
	defer func() {
		if recover() != nil {
			out = word
		}
	}()

	corrected := d.applyMultiCharPatterns(word, context, index)

	// A multi-character correction that introduced digits is final;
	// later, more general rules must not override it.
	if corrected != word && containsDigit(corrected) {
		return corrected
	}

	corrected = d.applyAlphanumericContext(corrected, context)
	corrected = d.applyLinguisticPatterns(corrected, context, index)
	corrected = d.applyPositional(corrected, context, index)
	return corrected
}

// applyMultiCharPatterns handles glyph-pair confusions and trailing
// ambiguous letters on alphanumeric entities (company codes, model ids).
func (d *Disambiguator) applyMultiCharPatterns(word string, context []string, index int) string {
	clean, punct := stripTrailingPunct(word)

	if d.isAlphanumericEntityContext(clean, context, index) {
		if len(clean) <= 4 && strings.HasSuffix(clean, "l") {
			return clean[:len(clean)-1] + "1" + punct
		}
	}

	if replacement, ok := multiCharTable[clean]; ok && isNumericContext(context) {
		return replacement + punct
	}
	return word
}

// isAlphanumericEntityContext detects whether a word plausibly names an
// alphanumeric entity rather than a person or a common English word.
func (d *Disambiguator) isAlphanumericEntityContext(word string, context []string, index int) bool {
	// Surname guard: a following capitalized common surname means this
	// is a person's name, never an identifier.
	if index+1 < len(context) {
		next := context[index+1]
		if next != "" && unicode.IsUpper(firstRune(next)) && commonSurnames[strings.ToLower(trimPunct(next))] {
			return false
		}
	}

	if index == 0 && sentenceStarters[strings.ToLower(word)] {
		return false
	}

	// Short word followed within two tokens by a business action verb.
	if len(word) <= 3 {
		following := strings.ToLower(strings.Join(window(context, index+1, index+3), " "))
		for _, verb := range businessVerbs {
			if strings.Contains(following, verb) {
				return true
			}
		}
	}

	// Entity preposition before, business noun after.
	if index > 0 && entityPrepositions[strings.ToLower(context[index-1])] && len(word) <= 4 {
		for _, next := range window(context, index+1, index+3) {
			if businessNouns[strings.ToLower(trimPunct(next))] {
				return true
			}
		}
	}

	// Model/identifier marker within the two preceding tokens.
	preceding := strings.ToLower(strings.Join(window(context, index-2, index), " "))
	for _, indicator := range modelIndicators {
		if strings.Contains(preceding, indicator) {
			return true
		}
	}

	// Mixed-case short token inside a technology/business window.
	if len(word) <= 4 && hasUpper(word) && hasLower(word) {
		surrounding := strings.ToLower(strings.Join(window(context, index-2, index+3), " "))
		for _, tech := range techContextWords {
			if strings.Contains(surrounding, tech) {
				return true
			}
		}
	}

	return false
}

// applyAlphanumericContext normalizes remaining ambiguous letters inside
// digit-bearing words, and lone ambiguous characters next to numbers.
func (d *Disambiguator) applyAlphanumericContext(word string, context []string) string {
	// Digits introduced by the multi-char rule stay as-is unless the
	// surrounding sentence is itself numeric.
	if containsDigit(word) && !containsDigit(strings.Join(context, "")) {
		return word
	}

	if containsDigit(word) {
		word = strings.ReplaceAll(word, "l", "1")
		word = strings.ReplaceAll(word, "L", "1")
		if len(word) > 1 {
			word = strings.ReplaceAll(word, "I", "1")
		}
		word = strings.ReplaceAll(word, "O", "0")
	}

	hasNumericNeighbor := false
	for _, neighbor := range context {
		if neighbor != word && containsDigit(neighbor) {
			hasNumericNeighbor = true
			break
		}
	}
	if hasNumericNeighbor {
		switch strings.ToLower(word) {
		case "l", "i":
			return "1"
		case "o":
			return "0"
		}
	}
	return word
}

// applyLinguisticPatterns resolves single characters by grammatical
// context, and longer words by English word-formation preference.
func (d *Disambiguator) applyLinguisticPatterns(word string, context []string, index int) string {
	if len(word) == 1 {
		char := strings.ToLower(word)

		if (char == "l" || char == "1") && isPronounContext(context, index) {
			return "I"
		}
		if (char == "l" || char == "i") && isNumericContext(context) {
			return "1"
		}
		if (char == "1" || char == "i") && isLetterContext(context, index) {
			return "l"
		}
		return word
	}
	return preferEnglishWordFormation(word)
}

// applyPositional resolves by sentence position: lone ambiguous
// characters at sentence start read as the pronoun "I"; short ambiguous
// tokens elsewhere re-check the entity heuristic and read as "1".
func (d *Disambiguator) applyPositional(word string, context []string, index int) string {
	atSentenceStart := index == 0 ||
		(index > 0 && strings.HasSuffix(context[index-1], "."))

	if atSentenceStart && len(word) == 1 {
		lower := strings.ToLower(word)
		if lower == "l" || lower == "1" {
			return "I"
		}
	}

	if len(word) <= 3 {
		lower := strings.ToLower(word)
		if lower == "l" || lower == "i" {
			if d.isAlphanumericEntityContext(word, context, index) {
				return "1"
			}
		}
	}
	return word
}

// preferEnglishWordFormation generates bounded glyph-substitution
// variants and keeps the one scoring most like an English word. Ties
// keep the original.
func preferEnglishWordFormation(word string) string {
	if !strings.ContainsAny(word, "l1I") {
		return word
	}
	if commonWhitelist[strings.ToLower(trimPunct(word))] {
		return word
	}

	variants := []string{word}
	upper := word == strings.ToUpper(word)
	lower := word == strings.ToLower(word)
	if upper || lower || len(word) <= 3 {
		if strings.Contains(strings.ToLower(word), "l") {
			v := strings.ReplaceAll(strings.ReplaceAll(word, "l", "1"), "L", "1")
			variants = append(variants, v)
		}
		if strings.Contains(word, "1") {
			variants = append(variants, strings.ReplaceAll(word, "1", "l"))
		}
	}

	best := word
	bestScore := scoreWordLikelihood(word)
	for _, v := range variants[1:] {
		if score := scoreWordLikelihood(v); score > bestScore {
			bestScore = score
			best = v
		}
	}
	return best
}

// scoreWordLikelihood estimates how plausible a token is as an English
// word: interior digits are penalized, common morphemes rewarded, and
// unnatural glyph runs penalized hardest.
func scoreWordLikelihood(word string) float64 {
	var score float64

	if len(word) > 2 {
		interior := word[1 : len(word)-1]
		if containsDigit(interior) && !isAllAlnum(word) {
			score -= 0.3
		}
	}

	lowerWord := strings.ToLower(word)
	for _, pattern := range morphemePatterns {
		if strings.Contains(lowerWord, pattern) {
			score += 0.2
		}
	}

	for _, run := range glyphRuns {
		if strings.Contains(word, run) {
			score -= 0.4
		}
	}
	return score
}

func isPronounContext(context []string, index int) bool {
	for _, next := range window(context, index+1, index+3) {
		if pronounVerbs[strings.ToLower(trimPunct(next))] {
			return true
		}
	}
	return false
}

func isNumericContext(context []string) bool {
	for _, word := range context {
		lower := strings.ToLower(word)
		for _, indicator := range numericIndicators {
			if strings.Contains(lower, indicator) {
				return true
			}
		}
	}
	return false
}

func isLetterContext(context []string, index int) bool {
	var prevEndsAlpha, nextStartsAlpha bool
	if index > 0 {
		prev := context[index-1]
		prevEndsAlpha = prev != "" && unicode.IsLetter(lastRune(prev))
	}
	if index+1 < len(context) {
		next := context[index+1]
		nextStartsAlpha = next != "" && unicode.IsLetter(firstRune(next))
	}
	return prevEndsAlpha || nextStartsAlpha
}

// splitPunctuation separates a token into leading non-word runes, the
// core word, and trailing non-word runes.
func splitPunctuation(word string) (prefix, core, suffix string) {
	runes := []rune(word)
	start := 0
	for start < len(runes) && !isWordRune(runes[start]) {
		start++
	}
	end := len(runes)
	for end > start && !isWordRune(runes[end-1]) {
		end--
	}
	return string(runes[:start]), string(runes[start:end]), string(runes[end:])
}

// stripTrailingPunct removes non-word runes anywhere in the token,
// returning the cleaned word and whatever trailed it.
func stripTrailingPunct(word string) (clean, punct string) {
	var b strings.Builder
	for _, r := range word {
		if isWordRune(r) {
			b.WriteRune(r)
		}
	}
	clean = b.String()
	if len(word) > len(clean) {
		punct = word[len(clean):]
	}
	return clean, punct
}

func trimPunct(word string) string {
	return strings.TrimFunc(word, func(r rune) bool { return !isWordRune(r) })
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isAllAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func hasLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	var last rune
	for _, r := range s {
		last = r
	}
	return last
}

// window returns context[from:to] clamped to valid bounds
func window(context []string, from, to int) []string {
	if from < 0 {
		from = 0
	}
	if to > len(context) {
		to = len(context)
	}
	if from >= to {
		return nil
	}
	return context[from:to]
}
