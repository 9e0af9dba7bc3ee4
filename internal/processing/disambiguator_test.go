package processing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisambiguatorPreservesWordCountAndOrder(t *testing.T) {
	d := NewDisambiguator()

	texts := []string{
		"The quick brown fox jumps over the lazy dog",
		"Model Al-2000 provides excellent service",
		"Al Garcia works at the office",
		"Call us at suite l 100 for details",
		"l was here. l think it works",
		"",
		"single",
	}

	for _, text := range texts {
		result := d.Disambiguate(text)
		assert.Equal(t, len(strings.Fields(text)), len(strings.Fields(result)),
			"word count must be preserved for %q", text)
	}
}

func TestSurnameGuard(t *testing.T) {
	d := NewDisambiguator()

	// "Al" followed by a common capitalized surname is a person's name,
	// never an identifier.
	result := d.Disambiguate("Al Garcia signed the contract")
	assert.True(t, strings.HasPrefix(result, "Al "), "got %q", result)
	assert.NotContains(t, result, "A1")
}

func TestModelIdentifierCorrection(t *testing.T) {
	d := NewDisambiguator()

	// Preceded by a model marker, a short trailing-l token reads as an
	// alphanumeric identifier.
	result := d.Disambiguate("Model Al provides reliability")
	assert.Contains(t, result, "A1")

	// The hyphenated form survives as-is: the trailing-l rule only
	// covers short tokens, and the word-formation scorer prefers the
	// letter reading for the full token.
	result = d.Disambiguate("Model Al-2000 provides reliability")
	assert.Contains(t, result, "Al-2000")
}

func TestMultiCharTableInNumericContext(t *testing.T) {
	d := NewDisambiguator()

	cases := map[string]string{
		"phone Il listed": "11",
		"phone ll listed": "11",
		"phone Ol listed": "01",
		"phone lO listed": "10",
	}
	for input, want := range cases {
		result := d.Disambiguate(input)
		words := strings.Fields(result)
		assert.Equal(t, want, words[1], "input %q", input)
		// Substitutions are length-preserving.
		assert.Len(t, words[1], 2, "input %q", input)
	}
}

func TestMultiCharTableRequiresNumericContext(t *testing.T) {
	d := NewDisambiguator()

	// Without a numeric-context marker the pair is left alone.
	result := d.Disambiguate("the Il was visible")
	assert.Contains(t, result, "Il")
}

func TestPronounResolution(t *testing.T) {
	d := NewDisambiguator()

	// Pronoun-verb lookahead.
	result := d.Disambiguate("l am ready to start")
	assert.True(t, strings.HasPrefix(result, "I "), "got %q", result)

	// Sentence-start positional default.
	result = d.Disambiguate("It rained here. l went home")
	words := strings.Fields(result)
	assert.Equal(t, "I", words[3], "got %q", result)
}

func TestNumericNeighborResolution(t *testing.T) {
	d := NewDisambiguator()

	// A lone ambiguous character between digit-bearing words reads as a
	// digit; neither neighbor starts or ends with a letter, so the
	// letter-context rule does not pull it back.
	result := d.Disambiguate("101 l 100")
	assert.Equal(t, "101 1 100", result)

	result = d.Disambiguate("101 o 100")
	assert.Equal(t, "101 0 100", result)
}

func TestLetterContextPullsBack(t *testing.T) {
	d := NewDisambiguator()

	// Source behavior: even after a numeric-neighbor correction, a
	// single character flanked by an alphabetic word resolves back to a
	// letter. Pinned before any refactor of the cascade order.
	result := d.Disambiguate("Suite l 100")
	assert.Equal(t, "Suite l 100", result)
}

func TestSentenceInitialMultiCharWordUnchanged(t *testing.T) {
	d := NewDisambiguator()

	// The positional rule covers single ambiguous characters only;
	// sentence-initial "lt"/"lts" stay as recognized. Pinned source
	// behavior.
	result := d.Disambiguate("lts cost was $100. lt worked well.")
	words := strings.Fields(result)
	assert.Equal(t, "lts", words[0])
	assert.Equal(t, "lt", words[4])
}

func TestAlphanumericContextNormalization(t *testing.T) {
	d := NewDisambiguator()

	// Words already containing digits get remaining ambiguous letters
	// normalized, provided the sentence has digits elsewhere too.
	result := d.Disambiguate("codes B2l and 4O1 match")
	assert.Contains(t, result, "B21")
	assert.Contains(t, result, "401")
}

func TestCommonWordsNeverRewritten(t *testing.T) {
	d := NewDisambiguator()

	for _, word := range []string{"welcome", "all", "also", "always", "home"} {
		result := d.Disambiguate(word + " to the team")
		assert.True(t, strings.HasPrefix(result, word), "word %q became %q", word, result)
	}
}

func TestPunctuationPreserved(t *testing.T) {
	d := NewDisambiguator()

	result := d.Disambiguate("(phone Il) listed, today.")
	assert.True(t, strings.HasPrefix(result, "("), "got %q", result)
	assert.True(t, strings.HasSuffix(result, "today."), "got %q", result)
	assert.Contains(t, result, "11)")
}

func TestWordFormationScoring(t *testing.T) {
	assert.InDelta(t, 0.2, scoreWordLikelihood("working"), 0.001)  // "ing" morpheme
	assert.InDelta(t, -0.8, scoreWordLikelihood("wel1l"), 0.001)   // "l1" and "1l" runs
	assert.InDelta(t, 0.0, scoreWordLikelihood("A1"), 0.001)       // alphanumeric, no interior digit
	assert.Less(t, scoreWordLikelihood("b1ll"), scoreWordLikelihood("bill"))
}
