package analysis

import "fmt"

// Task identifies one analysis operation sent to the language model.
// Prompt and sampling parameters are resolved through the task table;
// adding a task means adding a table row, nothing else.
type Task string

const (
	TaskClassification Task = "classification"
	TaskEntities       Task = "entity_extraction"
	TaskSentiment      Task = "sentiment"
	TaskSummary        Task = "summarization"
)

// genOptions are the sampling parameters passed to the model
type genOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

// promptSpec pairs a task's system prompt with its input budget and
// sampling parameters.
type promptSpec struct {
	system   string
	maxInput int
	options  genOptions
}

// promptTable drives every model call. Extraction tasks run cold for
// precision; summarization runs warmer.
var promptTable = map[Task]promptSpec{
	TaskClassification: {
		maxInput: 2000,
		options:  genOptions{Temperature: 0.2, TopP: 0.8, NumPredict: 256},
		system: `You are an expert document classifier specializing in business and legal documents.

Classify the document into exactly one category:
invoice, contract, report, letter, resume, legal, academic, technical, form, financial, unknown.

Consider document structure, key terminology, purpose, and target audience.

Respond with ONLY a JSON object in this exact format:
{"type": "document_category", "confidence": 0.95, "reasoning": "brief explanation"}

Confidence must reflect actual certainty (0.0-1.0); be conservative with scores above 0.9.`,
	},
	TaskEntities: {
		maxInput: 1500,
		options:  genOptions{Temperature: 0.1, TopP: 0.7, NumPredict: 512},
		system: `You are an expert in Named Entity Recognition for business and legal documents.

Extract entities of these categories:
PERSON (full names), ORG (organizations, companies), LOC (locations, addresses), DATE (dates and times), MONEY (monetary amounts), EMAIL, PHONE.

Respond with ONLY a JSON array in this exact format:
[{"text": "entity text", "label": "CATEGORY", "confidence": 0.9}]

Return an empty array if no entities are found.`,
	},
	TaskSentiment: {
		maxInput: 1000,
		options:  genOptions{Temperature: 0.3, TopP: 0.9, NumPredict: 256},
		system: `You are an expert in document sentiment analysis.

Judge the overall sentiment of the document as positive, negative, or neutral.

Respond with ONLY a JSON object in this exact format:
{"sentiment": "neutral", "confidence": 0.8, "subjectivity": 0.4}

Subjectivity runs from 0.0 (purely factual) to 1.0 (purely opinion).`,
	},
	TaskSummary: {
		maxInput: 3000,
		options:  genOptions{Temperature: 0.5, TopP: 0.9, NumPredict: 512},
		system: `You are an expert document summarizer.

Write a concise summary of the document in 2-4 sentences. Capture the purpose, the key facts, and any conclusion. Respond with the summary text only, no preamble and no JSON.`,
	},
}

// userPrompt frames the (truncated) document text for a task
func userPrompt(task Task, text string) string {
	spec := promptTable[task]
	if spec.maxInput > 0 && len(text) > spec.maxInput {
		text = text[:spec.maxInput]
	}
	switch task {
	case TaskClassification:
		return fmt.Sprintf("DOCUMENT TO CLASSIFY:\n\n%s\n\n---\n\nDetermine the category of the above document.", text)
	case TaskEntities:
		return fmt.Sprintf("DOCUMENT:\n\n%s\n\n---\n\nExtract the named entities from the above document.", text)
	case TaskSentiment:
		return fmt.Sprintf("DOCUMENT:\n\n%s\n\n---\n\nJudge the overall sentiment of the above document.", text)
	case TaskSummary:
		return fmt.Sprintf("DOCUMENT:\n\n%s\n\n---\n\nSummarize the above document.", text)
	}
	return text
}
