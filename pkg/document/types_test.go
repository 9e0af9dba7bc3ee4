package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeFromFilename(t *testing.T) {
	cases := map[string]Type{
		"scan.pdf":     TypePDF,
		"Scan.PDF":     TypePDF,
		"photo.jpeg":   TypeImage,
		"photo.jpg":    TypeImage,
		"page.png":     TypeImage,
		"contract.docx": TypeDOCX,
		"page.html":    TypeHTML,
		"notes.txt":    TypeText,
		"archive.zip":  TypeUnknown,
	}
	for name, want := range cases {
		assert.Equal(t, want, TypeFromFilename(name), name)
	}
}

func TestAnalysisResultValidate(t *testing.T) {
	r := &AnalysisResult{JobID: "j1", Filename: "a.pdf", TextConfidence: 0.9}
	require.NoError(t, r.Validate())

	r.TextConfidence = 1.2
	assert.Error(t, r.Validate())

	r.TextConfidence = 0.5
	r.JobID = ""
	assert.Error(t, r.Validate())
}

func TestComputeStatistics(t *testing.T) {
	stats := ComputeStatistics("One two three. Four five.")
	assert.Equal(t, 5, stats.WordCount)
	assert.Equal(t, 2, stats.SentenceCount)
	assert.InDelta(t, 2.5, stats.AverageWordsPerSentence, 0.001)

	empty := ComputeStatistics("")
	assert.Equal(t, 0, empty.WordCount)
	assert.Equal(t, 0, empty.SentenceCount)
	assert.Equal(t, 0.0, empty.AverageWordsPerSentence)
}
