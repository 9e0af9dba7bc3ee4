package report

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

// DOCX renders the processing report as a Word document. The file is
// authored directly as minimal WordprocessingML; styling is limited to
// headings and bold labels.
func DOCX(result *document.AnalysisResult) ([]byte, error) {
	var body strings.Builder

	writeHeading(&body, "Document Processing Results", 0)

	writeParagraph(&body,
		run("Processing Summary", true),
		run(fmt.Sprintf("Filename: %s", result.Filename), false),
		run(fmt.Sprintf("File Type: %s", result.FileType), false),
		run(fmt.Sprintf("Processing Date: %s", time.Now().Format("2006-01-02 15:04:05")), false),
		run(fmt.Sprintf("Processing Time: %.2f seconds", result.ProcessingTime), false),
		run(fmt.Sprintf("Text Confidence: %.1f%%", result.TextConfidence*100), false),
	)
	if result.PageCount > 0 {
		writeParagraph(&body, run(fmt.Sprintf("Pages: %d", result.PageCount), false))
	}
	if result.Statistics != nil {
		writeParagraph(&body,
			run(fmt.Sprintf("Word Count: %d", result.Statistics.WordCount), false),
			run(fmt.Sprintf("Character Count: %d", result.Statistics.CharacterCount), false),
		)
	}

	if result.Classification != nil {
		writeHeading(&body, "Document Classification", 1)
		writeParagraph(&body,
			run("Type: ", true),
			run(titleCase(result.Classification.Type), false),
			run("Confidence: ", true),
			run(fmt.Sprintf("%.1f%%", result.Classification.Confidence*100), false),
		)
	}

	if len(result.Entities) > 0 {
		writeHeading(&body, "Extracted Entities", 1)
		for _, e := range capEntities(result.Entities) {
			writeParagraph(&body,
				run("• "+e.Text, true),
				run(fmt.Sprintf(" (%s) [%.1f%%]", orUnknown(e.Label), e.Confidence*100), false),
			)
		}
	}

	if result.Sentiment != nil {
		writeHeading(&body, "Sentiment Analysis", 1)
		writeParagraph(&body,
			run("Overall Sentiment: ", true),
			run(titleCase(result.Sentiment.Overall), false),
			run("Confidence: ", true),
			run(fmt.Sprintf("%.1f%%", result.Sentiment.Confidence*100), false),
			run("Polarity: ", true),
			run(fmt.Sprintf("%.2f", result.Sentiment.Polarity), false),
			run("Subjectivity: ", true),
			run(fmt.Sprintf("%.2f", result.Sentiment.Subjectivity), false),
		)
	}

	if len(result.KeyInformation) > 0 {
		writeHeading(&body, "Key Information", 1)
		for _, infoType := range sortedKeys(result.KeyInformation) {
			values := result.KeyInformation[infoType]
			if len(values) == 0 {
				continue
			}
			runs := []docxRun{run(titleCase(strings.ReplaceAll(infoType, "_", " "))+":", true)}
			for _, v := range capValues(values) {
				runs = append(runs, run("  • "+v, false))
			}
			writeParagraph(&body, runs...)
		}
	}

	if result.Summary != "" {
		writeHeading(&body, "Summary", 1)
		writeParagraph(&body, run(result.Summary, false))
	}

	if result.ExtractedText != "" {
		writeHeading(&body, "Extracted Text", 1)
		for _, para := range strings.Split(FormatExtractedText(result.ExtractedText), "\n\n") {
			if para = strings.TrimSpace(para); para != "" {
				writeParagraph(&body, run(para, false))
			}
		}
	}

	return packDocx(body.String())
}

type docxRun struct {
	text string
	bold bool
}

func run(text string, bold bool) docxRun {
	return docxRun{text: text, bold: bold}
}

// writeHeading emits a paragraph bound to a heading style; level 0 is
// the document title.
func writeHeading(b *strings.Builder, text string, level int) {
	style := "Title"
	if level > 0 {
		style = fmt.Sprintf("Heading%d", level)
	}
	fmt.Fprintf(b,
		`<w:p><w:pPr><w:pStyle w:val="%s"/></w:pPr><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`,
		style, escapeXML(text))
}

// writeParagraph emits one paragraph; runs are separated by line breaks
func writeParagraph(b *strings.Builder, runs ...docxRun) {
	b.WriteString("<w:p>")
	for i, r := range runs {
		b.WriteString("<w:r>")
		if r.bold {
			b.WriteString("<w:rPr><w:b/></w:rPr>")
		}
		fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t>`, escapeXML(r.text))
		if i < len(runs)-1 {
			b.WriteString("<w:br/>")
		}
		b.WriteString("</w:r>")
	}
	b.WriteString("</w:p>")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentFooter = `</w:body></w:document>`

// packDocx assembles the OOXML container around the document body
func packDocx(body string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentHeader + body + documentFooter},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize document: %w", err)
	}
	return buf.Bytes(), nil
}
